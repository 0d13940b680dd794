package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/authz"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/storage"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
	"gorm.io/gorm"
)

// AddAttachment stores an uploaded file on a task. Any project member may
// upload. Responds with JSON for XHR callers.
func AddAttachment(ctx *gin.Context) {
	task, ok := findTask(ctx)

	if !ok {
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsMember(currentUser.ID, task.ProjectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	header, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "A file is required"})
		return
	}

	storedName, size, err := storage.Save(header)

	if err != nil {
		log.Printf("Failed to store attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store attachment"})
		return
	}

	attachment := models.Attachment{
		TaskID:     task.ID,
		UploaderID: currentUser.ID,
		FileName:   header.Filename,
		StoredName: storedName,
		Size:       size,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attachment).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, task.ProjectID, currentUser.ID,
			fmt.Sprintf("%s attached %q to task %q", currentUser.Name, header.Filename, task.Title),
			map[string]interface{}{"action": "attachment_added", "task_id": task.ID, "attachment_id": attachment.ID})
	})

	if err != nil {
		// The row never existed, so the blob must not either.
		if removeErr := storage.Remove(storedName); removeErr != nil {
			log.Printf("Failed to remove orphaned blob %s: %v", storedName, removeErr)
		}
		log.Printf("Failed to create attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create attachment"})
		return
	}

	services.AnnounceActivity(task.ProjectID, currentUser.Name, fmt.Sprintf("attached %q to task %q", header.Filename, task.Title))

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"attachment": attachmentSummary(attachment),
	})
}

func findAttachment(ctx *gin.Context) (models.Attachment, bool) {
	var attachment models.Attachment

	attachmentID, err := utils.GetAttachmentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return attachment, false
	}

	if err := db.DB.Preload("Task").First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		}
		return attachment, false
	}

	return attachment, true
}

// DeleteAttachment removes the stored blob and the metadata row as one
// logical operation: the row delete and the blob unlink share a transaction,
// so a blob that cannot be removed rolls the row back. Any project member
// may delete any attachment, not just its uploader.
func DeleteAttachment(ctx *gin.Context) {
	attachment, ok := findAttachment(ctx)

	if !ok {
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsMember(currentUser.ID, attachment.Task.ProjectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&attachment).Error; err != nil {
			return err
		}

		if err := storage.Remove(attachment.StoredName); err != nil {
			return err
		}

		return services.RecordActivity(tx, attachment.Task.ProjectID, currentUser.ID,
			fmt.Sprintf("%s removed attachment %q from task %q", currentUser.Name, attachment.FileName, attachment.Task.Title),
			map[string]interface{}{"action": "attachment_removed", "task_id": attachment.TaskID})
	})

	if err != nil {
		log.Printf("Failed to delete attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete attachment"})
		return
	}

	services.AnnounceActivity(attachment.Task.ProjectID, currentUser.Name,
		fmt.Sprintf("removed attachment %q from task %q", attachment.FileName, attachment.Task.Title))

	ctx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"attachment_id": attachment.ID,
	})
}

// DownloadAttachment streams the stored blob back under its original name.
func DownloadAttachment(ctx *gin.Context) {
	attachment, ok := findAttachment(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsMember(userID, attachment.Task.ProjectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	if !storage.Exists(attachment.StoredName) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return
	}

	ctx.FileAttachment(storage.Path(attachment.StoredName), attachment.FileName)
}
