package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Perfil represents user profile roles in the system
type Perfil string

const (
	PerfilAdmin   Perfil = "admin"
	PerfilUser    Perfil = "user"
	PerfilTecnico Perfil = "tecnico"
)

// User statuses
const (
	StatusActivo   = "activo"
	StatusInactivo = "inactivo"
)

// User represents a user in the "users" collection
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Correo       string             `bson:"correo" json:"correo"`
	Nombre       string             `bson:"nombre" json:"nombre"`
	Empresa      string             `bson:"empresa,omitempty" json:"empresa,omitempty"`
	PasswordHash string             `bson:"password" json:"-"`
	Perfil       Perfil             `bson:"perfil" json:"perfil"`
	Status       string             `bson:"status" json:"status"`
	Telefono     string             `bson:"telefono,omitempty" json:"telefono,omitempty"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt    time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Correo string `json:"correo"`
	Perfil Perfil `json:"perfil"`
	Exp    int64  `json:"exp"`
}

// IsValidPerfil checks if a profile role is valid
func IsValidPerfil(p Perfil) bool {
	switch p {
	case PerfilAdmin, PerfilUser, PerfilTecnico:
		return true
	default:
		return false
	}
}

// IsActive reports whether the user may operate on the inventory.
func (u *User) IsActive() bool {
	return u.Status == StatusActivo
}

// CanManageUsers reports whether the user may administer other accounts.
func (u *User) CanManageUsers() bool {
	return u.Perfil == PerfilAdmin
}
