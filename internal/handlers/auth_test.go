package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
)

func TestRegister(t *testing.T) {
	r := setupTest(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username":   "Alice",
		"password":   "password123",
		"first_name": "Alice",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"], "username should be lowercased")
	assert.Nil(t, user["password_hash"])

	// Duplicate username is rejected.
	w = doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterNeverGrantsAdmin(t *testing.T) {
	r := setupTest(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username": "mallory",
		"password": "password123",
		"roles":    []string{"admin", "tutor"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, db.DB.Where("username = ?", "mallory").First(&user).Error)

	assert.False(t, user.IsAdmin())
	assert.Contains(t, user.RoleList(), "ROLE_TUTOR")
}

func TestLogin(t *testing.T) {
	r := setupTest(t)
	createTestUser(t, "bob")

	w := doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"username": "bob",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"username": "bob",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	r := setupTest(t)
	user := createTestUser(t, "carol")

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	profile := body["user"].(map[string]interface{})
	assert.Equal(t, "carol", profile["username"])

	// Missing token is rejected at the middleware.
	w = doRequest(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
