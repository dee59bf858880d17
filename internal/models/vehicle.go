package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tipo classifies the kind of vehicle.
type Tipo string

const (
	TipoAuto       Tipo = "Auto"
	TipoMoto       Tipo = "Moto"
	TipoCamion     Tipo = "Camion"
	TipoMaquinaria Tipo = "Maquinaria Pesada"
	TipoOtro       Tipo = "Otro"
)

// DefaultTipo is applied when a form omits the vehicle type.
const DefaultTipo = TipoAuto

// Corte options describe the subsystem where the engine cut is installed.
const (
	CorteIgnicion = "Ignición"
	CorteBomba    = "Bomba de Gasolina"
	CorteFusilera = "Fusliera"
)

// MaxImageURLs limits persisted plus newly uploaded images per vehicle.
const MaxImageURLs = 5

// Vehicle is a document in the "vehicles" collection. BrandID and ModelID
// reference the "brands" and "models" collections but nothing enforces that
// those documents still exist; readers must tolerate dangling references.
type Vehicle struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Brand       string             `bson:"brand" json:"brand"`
	BrandID     string             `bson:"brandId,omitempty" json:"brandId,omitempty"`
	Model       string             `bson:"model" json:"model"`
	ModelID     string             `bson:"modelId,omitempty" json:"modelId,omitempty"`
	Year        int                `bson:"year" json:"year"`
	Tipo        Tipo               `bson:"tipo" json:"tipo"`
	Corte       string             `bson:"corte" json:"corte"`
	Colors      string             `bson:"colors" json:"colors"`
	Ubicacion   string             `bson:"ubicacion" json:"ubicacion"`
	ImageURLs   []string           `bson:"imageUrls" json:"imageUrls"`
	Observation string             `bson:"observation,omitempty" json:"observation,omitempty"`
	UserEmail   string             `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	CreatedAt   time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// VehicleUpdate is the mutable subset written on edit. Brand and model are
// fixed once a vehicle is created, so this struct has no fields for them.
type VehicleUpdate struct {
	Year        int      `bson:"year"`
	Tipo        Tipo     `bson:"tipo"`
	Corte       string   `bson:"corte"`
	Colors      string   `bson:"colors"`
	Ubicacion   string   `bson:"ubicacion"`
	ImageURLs   []string `bson:"imageUrls"`
	UserEmail   string   `bson:"userEmail,omitempty"`
	Observation string   `bson:"observation,omitempty"`
}

// IsValidTipo checks if a vehicle type is one of the known options.
func IsValidTipo(t Tipo) bool {
	switch t {
	case TipoAuto, TipoMoto, TipoCamion, TipoMaquinaria, TipoOtro:
		return true
	default:
		return false
	}
}

// CorteOptions returns the selectable corte locations.
func CorteOptions() []string {
	return []string{CorteIgnicion, CorteBomba, CorteFusilera}
}

// IsValidCorte checks if a corte value is one of the known options.
func IsValidCorte(corte string) bool {
	for _, opt := range CorteOptions() {
		if corte == opt {
			return true
		}
	}
	return false
}
