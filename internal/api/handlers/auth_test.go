package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

type fakeAdminStore struct {
	admin *model.Admin
	err   error
}

func (f *fakeAdminStore) GetAdminByUsername(context.Context, string) (*model.Admin, error) {
	return f.admin, f.err
}

func loginRequest(t *testing.T, h *AuthHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/auth/login", h.Login)

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	store := &fakeAdminStore{admin: &model.Admin{ID: "uuid-1", Username: "admin", PasswordHash: string(hash)}}
	h := NewAuthHandler(store, "test-secret")

	w := loginRequest(t, h, model.LoginRequest{Username: "admin", Password: "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string              `json:"message"`
		Data    model.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)

	token, err := jwt.Parse(resp.Data.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "uuid-1", claims["sub"])
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	store := &fakeAdminStore{admin: &model.Admin{Username: "admin", PasswordHash: string(hash)}}
	h := NewAuthHandler(store, "test-secret")

	w := loginRequest(t, h, model.LoginRequest{Username: "admin", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h := NewAuthHandler(&fakeAdminStore{err: errors.New("no rows")}, "test-secret")
	w := loginRequest(t, h, model.LoginRequest{Username: "ghost", Password: "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	h := NewAuthHandler(&fakeAdminStore{}, "test-secret")
	w := loginRequest(t, h, map[string]string{"username": "admin"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
