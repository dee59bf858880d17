package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loggier/app-corte/internal/auth"
	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/middleware"
	"github.com/loggier/app-corte/internal/models"
)

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, correo string) (*models.User, error) {
	args := m.Called(ctx, correo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-key-for-auth-handler")
	service, err := auth.NewService()
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}
	return service
}

func testUser(t *testing.T, service *auth.Service, password string) *models.User {
	t.Helper()
	hash, err := service.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &models.User{
		ID:           primitive.NewObjectID(),
		Correo:       "tecnico@example.com",
		Nombre:       "Juan",
		PasswordHash: hash,
		Perfil:       models.PerfilTecnico,
		Status:       models.StatusActivo,
	}
}

func loginRequest(t *testing.T, correo, password string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(models.LoginRequest{Correo: correo, Password: password})
	if err != nil {
		t.Fatalf("failed to marshal login request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	service := newTestAuthService(t)
	user := testUser(t, service, "password123")

	users := new(MockUserCollection)
	users.On("FindUserByEmail", mock.Anything, user.Correo).Return(user, nil)
	users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

	h := NewAuthHandler(service, users)
	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, user.Correo, "password123"))

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.LoginResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.Correo, resp.User.Correo)

	claims, err := service.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, models.PerfilTecnico, claims.Perfil)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	service := newTestAuthService(t)
	user := testUser(t, service, "password123")

	users := new(MockUserCollection)
	users.On("FindUserByEmail", mock.Anything, user.Correo).Return(user, nil)

	h := NewAuthHandler(service, users)
	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, user.Correo, "wrong-password"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "UpdateLastLogin")
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	service := newTestAuthService(t)

	users := new(MockUserCollection)
	users.On("FindUserByEmail", mock.Anything, "nobody@example.com").Return(nil, db.ErrNotFound)

	h := NewAuthHandler(service, users)
	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, "nobody@example.com", "password123"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Login_InactiveUser(t *testing.T) {
	service := newTestAuthService(t)
	user := testUser(t, service, "password123")
	user.Status = models.StatusInactivo

	users := new(MockUserCollection)
	users.On("FindUserByEmail", mock.Anything, user.Correo).Return(user, nil)

	h := NewAuthHandler(service, users)
	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, user.Correo, "password123"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	service := newTestAuthService(t)
	h := NewAuthHandler(service, new(MockUserCollection))

	rec := httptest.NewRecorder()
	h.Login(rec, loginRequest(t, "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_MethodNotAllowed(t *testing.T) {
	service := newTestAuthService(t)
	h := NewAuthHandler(service, new(MockUserCollection))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthHandler_GetProfile(t *testing.T) {
	service := newTestAuthService(t)
	user := testUser(t, service, "password123")

	users := new(MockUserCollection)
	users.On("FindUserByID", mock.Anything, user.ID.Hex()).Return(user, nil)

	h := NewAuthHandler(service, users)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	claims := &models.Claims{UserID: user.ID.Hex(), Correo: user.Correo, Perfil: user.Perfil}
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, user.Correo, got.Correo)
}

func TestAuthHandler_GetProfile_NoContext(t *testing.T) {
	service := newTestAuthService(t)
	h := NewAuthHandler(service, new(MockUserCollection))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
