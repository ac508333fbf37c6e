package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
)

func TestListUsersAdminOnly(t *testing.T) {
	r := setupTest(t)
	admin := createTestUser(t, "root", models.RoleAdmin)
	regular := createTestUser(t, "alice")

	w := doRequest(t, r, http.MethodGet, "/api/users", tokenFor(t, regular), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/users", tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	users, ok := body["users"].([]interface{})
	require.True(t, ok)
	assert.Len(t, users, 2)
}

func TestGetUser(t *testing.T) {
	r := setupTest(t)
	alice := createTestUser(t, "alice")

	w := doRequest(t, r, http.MethodGet, "/api/users/alice", tokenFor(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")

	w = doRequest(t, r, http.MethodGet, "/api/users/nobody", tokenFor(t, alice), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserProfile(t *testing.T) {
	r := setupTest(t)
	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	// Bob cannot edit Alice.
	w := doRequest(t, r, http.MethodPatch, "/api/users/alice", tokenFor(t, bob), map[string]interface{}{
		"first_name": "Mallory",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodPatch, "/api/users/alice", tokenFor(t, alice), map[string]interface{}{
		"first_name": "  Alice ",
		"last_name":  "Smith",
		"phone_num":  "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.DB.First(&got, alice.ID).Error)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "Smith", got.LastName)
	assert.Equal(t, "555-0100", got.PhoneNum)
}

func TestUpdateUserAsAdmin(t *testing.T) {
	r := setupTest(t)
	admin := createTestUser(t, "root", models.RoleAdmin)
	alice := createTestUser(t, "alice")

	w := doRequest(t, r, http.MethodPatch, "/api/users/alice", tokenFor(t, admin), map[string]interface{}{
		"address": "12 Main St",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.DB.First(&got, alice.ID).Error)
	assert.Equal(t, "12 Main St", got.Address)
}

func TestChangePassword(t *testing.T) {
	r := setupTest(t)
	alice := createTestUser(t, "alice")
	token := tokenFor(t, alice)

	// New password without the current one is rejected.
	w := doRequest(t, r, http.MethodPatch, "/api/users/alice", token, map[string]interface{}{
		"new_password": "anotherpass1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong current password is rejected.
	w = doRequest(t, r, http.MethodPatch, "/api/users/alice", token, map[string]interface{}{
		"current_password": "wrong",
		"new_password":     "anotherpass1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPatch, "/api/users/alice", token, map[string]interface{}{
		"current_password": "password123",
		"new_password":     "anotherpass1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.User
	require.NoError(t, db.DB.First(&got, alice.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("anotherpass1")))
}

func TestDeleteUser(t *testing.T) {
	r := setupTest(t)
	admin := createTestUser(t, "root", models.RoleAdmin)
	secondAdmin := createTestUser(t, "root2", models.RoleAdmin)
	alice := createTestUser(t, "alice")

	// Regular users cannot delete accounts.
	w := doRequest(t, r, http.MethodDelete, "/api/users/root", tokenFor(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin accounts are off limits even to other admins.
	w = doRequest(t, r, http.MethodDelete, "/api/users/root2", tokenFor(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stillThere models.User
	assert.NoError(t, db.DB.First(&stillThere, secondAdmin.ID).Error)

	w = doRequest(t, r, http.MethodDelete, "/api/users/alice", tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var gone models.User
	err := db.DB.First(&gone, alice.ID).Error
	assert.Error(t, err)
}

func TestSearchUsers(t *testing.T) {
	r := setupTest(t)
	admin := createTestUser(t, "root", models.RoleAdmin)

	dob := time.Now().AddDate(-25, 0, -40)
	alice := models.User{
		Username:     "alice",
		PasswordHash: "x",
		FirstName:    "Alice",
		LastName:     "Smith",
		PhoneNum:     "555-0100",
		Address:      "12 Main St",
		DOB:          &dob,
	}
	require.NoError(t, db.DB.Create(&alice).Error)
	require.NoError(t, db.DB.Create(&models.User{
		Username:     "bob",
		PasswordHash: "x",
		FirstName:    "Bob",
	}).Error)

	token := tokenFor(t, admin)

	w := doRequest(t, r, http.MethodGet, "/api/users/search?firstname=Alice", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["users"], 1)

	w = doRequest(t, r, http.MethodGet, "/api/users/search?address=Main", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["users"], 1)

	w = doRequest(t, r, http.MethodGet, "/api/users/search?age=25", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["users"], 1)

	w = doRequest(t, r, http.MethodGet, "/api/users/search?age=-3", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/users/search?firstname=Nobody", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["users"], 0)
}
