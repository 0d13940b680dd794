package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/auth"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/router"
	"github.com/taskdeck-dev/taskdeck/internal/storage"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "test-secret-key")
	require.NoError(t, auth.InitJWTSecret())

	t.Setenv("UPLOAD_DIR", t.TempDir())
	require.NoError(t, storage.Init())

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and makes the
	// foreign_keys pragma stick.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.Exec("PRAGMA foreign_keys = ON").Error)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	return router.NewRouter()
}

func createUser(t *testing.T, name string, email string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	require.NoError(t, db.DB.Create(&user).Error)

	token, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)

	return user, token
}

func doJSON(r *gin.Engine, method string, path string, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func doUpload(t *testing.T, r *gin.Engine, path string, token string, fileName string, contents []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)

	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

// createProject drives the real endpoint and returns the new project's id
// parsed from the redirect target.
func createProject(t *testing.T, r *gin.Engine, token string, title string) uint {
	t.Helper()

	res := doJSON(r, http.MethodPost, "/projects/new/", token, gin.H{
		"title":      title,
		"goal":       "ship it",
		"start_date": "2026-09-01",
		"end_date":   "2026-12-31",
	})
	require.Equal(t, http.StatusSeeOther, res.Code)

	var projectID uint
	_, err := fmt.Sscanf(res.Header().Get("Location"), "/projects/%d/", &projectID)
	require.NoError(t, err)

	return projectID
}

// addMemberDirect attaches a user to a project without going through the
// invitation flow, for tests that only need the membership to exist.
func addMemberDirect(t *testing.T, userID uint, projectID uint, role types.Role) {
	t.Helper()

	membership := models.ProjectMembership{
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
	}
	require.NoError(t, db.DB.Create(&membership).Error)
}

// createTaskDirect inserts a task row, optionally assigned.
func createTaskDirect(t *testing.T, projectID uint, title string, deadline string, status types.TaskStatus, assignedTo *uint) models.Task {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", deadline)
	require.NoError(t, err)

	task := models.Task{
		ProjectID:    projectID,
		Title:        title,
		Deadline:     parsed,
		Status:       status,
		AssignedToID: assignedTo,
	}
	require.NoError(t, db.DB.Create(&task).Error)

	return task
}
