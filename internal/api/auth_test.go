package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter(t, db, &stubGenerator{})

	body := map[string]interface{}{
		"name":     "Test User",
		"email":    "cook@example.com",
		"password": "password123",
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeBody(t, w)["token"])

	t.Run("duplicate email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
			"name":     "Test User",
			"email":    "not-an-email",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
			"name":     "Test User",
			"email":    "other@example.com",
			"password": "123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter(t, db, &stubGenerator{})
	createTestUserAndToken(t, db, "cook@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email":    "cook@example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeBody(t, w)["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email":    "cook@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter(t, db, &stubGenerator{})

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/recipe/recipe-saved", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/recipe/recipe-saved", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupTestRouter(t, db, &stubGenerator{})

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
