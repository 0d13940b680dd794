package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/models"
)

func TestRegisterAutoLogin(t *testing.T) {
	r := setupServer(t)

	res := doJSON(r, http.MethodPost, "/register/", "", gin.H{
		"name":     "Alice",
		"email":    "Alice@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	// Email is normalized and the auth cookie is set right away.
	var user models.User
	require.NoError(t, db.DB.Where("email = ?", "alice@example.com").First(&user).Error)

	cookies := res.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == "token" && cookie.Value != "" {
			found = true
		}
	}
	require.True(t, found, "expected a token cookie after registration")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := setupServer(t)
	createUser(t, "Alice", "alice@example.com")

	res := doJSON(r, http.MethodPost, "/register/", "", gin.H{
		"name":     "Imposter",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLoginAndMe(t *testing.T) {
	r := setupServer(t)
	createUser(t, "Alice", "alice@example.com")

	res := doJSON(r, http.MethodPost, "/login/", "", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(r, http.MethodPost, "/login/", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)

	_, token := createUser(t, "Bob", "bob@example.com")

	res = doJSON(r, http.MethodGet, "/me/", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "bob@example.com")
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	r := setupServer(t)

	res := doJSON(r, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
