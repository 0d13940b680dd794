package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordActivity appends an activity-log entry for the project inside the
// caller's transaction, so the entry and the mutation it describes commit
// or roll back together.
func RecordActivity(tx *gorm.DB, projectID uint, userID uint, text string, meta map[string]interface{}) error {
	update := models.Update{
		ProjectID: projectID,
		UserID:    userID,
		Text:      text,
	}

	if meta != nil {
		payload, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		update.Meta = datatypes.JSON(payload)
	}

	return tx.Create(&update).Error
}

// AnnounceActivity pushes the entry to out-of-band consumers after the
// transaction has committed: the project's websocket clients and the
// configured webhook. Failures are logged, never surfaced to the request.
func AnnounceActivity(projectID uint, actorName string, text string) {
	Broadcaster.Refresh(projectID)

	go func() {
		var project models.Project

		if err := db.DB.First(&project, projectID).Error; err != nil {
			// The project may already be gone (deletes announce too).
			project.Title = fmt.Sprintf("project %d", projectID)
		}

		if err := NotifyActivity(project.Title, actorName, text); err != nil {
			log.Printf("Failed to deliver activity webhook for project %d: %v", projectID, err)
		}
	}()
}
