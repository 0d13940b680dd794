package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/storage"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

type attachmentResponse struct {
	Success    bool `json:"success"`
	Attachment struct {
		ID       uint   `json:"id"`
		FileName string `json:"file_name"`
		Size     int64  `json:"size"`
	} `json:"attachment"`
	AttachmentID uint `json:"attachment_id"`
}

func TestAddAttachment(t *testing.T) {
	r := setupServer(t)
	_, token := createUser(t, "Alice", "alice@example.com")

	projectID := createProject(t, r, token, "Launch")
	task := createTaskDirect(t, projectID, "review", "2026-10-05", types.TaskStatusTodo, nil)

	res := doUpload(t, r, fmt.Sprintf("/tasks/%d/add_attachment/", task.ID), token, "notes.txt", []byte("hello"))
	require.Equal(t, http.StatusOK, res.Code)

	var body attachmentResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "notes.txt", body.Attachment.FileName)
	require.Equal(t, int64(5), body.Attachment.Size)

	var attachment models.Attachment
	require.NoError(t, db.DB.First(&attachment, body.Attachment.ID).Error)
	require.True(t, storage.Exists(attachment.StoredName))
}

func TestAddAttachmentRequiresMembership(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	_, bobToken := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	task := createTaskDirect(t, projectID, "review", "2026-10-05", types.TaskStatusTodo, nil)

	res := doUpload(t, r, fmt.Sprintf("/tasks/%d/add_attachment/", task.ID), bobToken, "notes.txt", []byte("hello"))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestDeleteAttachmentRemovesBlobAndRow(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, bobToken := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	addMemberDirect(t, bob.ID, projectID, types.RoleViewer)
	task := createTaskDirect(t, projectID, "review", "2026-10-05", types.TaskStatusTodo, nil)

	res := doUpload(t, r, fmt.Sprintf("/tasks/%d/add_attachment/", task.ID), aliceToken, "notes.txt", []byte("hello"))
	require.Equal(t, http.StatusOK, res.Code)

	var uploaded attachmentResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &uploaded))

	var attachment models.Attachment
	require.NoError(t, db.DB.First(&attachment, uploaded.Attachment.ID).Error)

	// Any member may delete, not just the uploader.
	res = doJSON(r, http.MethodPost, fmt.Sprintf("/attachments/%d/delete/", attachment.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var deleted attachmentResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &deleted))
	require.True(t, deleted.Success)
	require.Equal(t, attachment.ID, deleted.AttachmentID)

	require.False(t, storage.Exists(attachment.StoredName))

	var count int64
	require.NoError(t, db.DB.Model(&models.Attachment{}).Where("id = ?", attachment.ID).Count(&count).Error)
	require.Zero(t, count)

	// A later fetch of the same id is a NotFound.
	res = doJSON(r, http.MethodPost, fmt.Sprintf("/attachments/%d/delete/", attachment.ID), bobToken, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestDownloadAttachment(t *testing.T) {
	r := setupServer(t)
	_, token := createUser(t, "Alice", "alice@example.com")

	projectID := createProject(t, r, token, "Launch")
	task := createTaskDirect(t, projectID, "review", "2026-10-05", types.TaskStatusTodo, nil)

	res := doUpload(t, r, fmt.Sprintf("/tasks/%d/add_attachment/", task.ID), token, "notes.txt", []byte("hello"))
	require.Equal(t, http.StatusOK, res.Code)

	var uploaded attachmentResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &uploaded))

	res = doJSON(r, http.MethodGet, fmt.Sprintf("/attachments/%d/download/", uploaded.Attachment.ID), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "hello", res.Body.String())
}
