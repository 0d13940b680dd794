package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/authz"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/storage"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Deadline    string `json:"deadline" binding:"required"`
	Status      string `json:"status"`
	AssignedTo  *uint  `json:"assigned_to"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AddCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type CommentSummary struct {
	ID         uint      `json:"id"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type AttachmentSummary struct {
	ID         uint      `json:"id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	UploaderID uint      `json:"uploader_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type TaskDetailResponse struct {
	Task        TaskSummary         `json:"task"`
	ProjectID   uint                `json:"project_id"`
	Comments    []CommentSummary    `json:"comments"`
	Attachments []AttachmentSummary `json:"attachments"`
}

func attachmentSummary(attachment models.Attachment) AttachmentSummary {
	return AttachmentSummary{
		ID:         attachment.ID,
		FileName:   attachment.FileName,
		Size:       attachment.Size,
		UploaderID: attachment.UploaderID,
		CreatedAt:  attachment.CreatedAt,
	}
}

func findTask(ctx *gin.Context) (models.Task, bool) {
	var task models.Task

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return task, false
	}

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return task, false
	}

	return task, true
}

// isAssignedTo is the only gate on status changes and deletion: the task's
// assigned user, nobody else. Admins are deliberately not exempt and an
// unassigned task cannot be mutated at all.
func isAssignedTo(task models.Task, userID uint) bool {
	return task.AssignedToID != nil && *task.AssignedToID == userID
}

// CreateTask adds a task to the project. Any member may create one; the
// assignee, if given, must also be a member.
func CreateTask(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsMember(currentUser.ID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	deadline, err := time.Parse(dateLayout, req.Deadline)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline, expected YYYY-MM-DD"})
		return
	}

	status := types.TaskStatusTodo

	if req.Status != "" {
		status, err = types.ParseTaskStatus(req.Status)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.AssignedTo != nil && !authz.IsMember(*req.AssignedTo, projectID) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this project"})
		return
	}

	task := models.Task{
		ProjectID:    projectID,
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     deadline,
		Status:       status,
		AssignedToID: req.AssignedTo,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, projectID, currentUser.ID,
			fmt.Sprintf("%s created task %q", currentUser.Name, task.Title),
			map[string]interface{}{"action": "task_created", "task_id": task.ID})
	})

	if err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	services.AnnounceActivity(projectID, currentUser.Name, fmt.Sprintf("created task %q", task.Title))

	redirectToDashboard(ctx, projectID)
}

// GetTask returns the task detail: the task itself, its comments oldest
// first, and its attachments.
func GetTask(ctx *gin.Context) {
	task, ok := findTask(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsMember(userID, task.ProjectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this project"})
		return
	}

	var comments []models.Comment

	if err := db.DB.Preload("Author").Where("task_id = ?", task.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	var attachments []models.Attachment

	if err := db.DB.Where("task_id = ?", task.ID).Order("created_at ASC").Find(&attachments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachments"})
		return
	}

	response := TaskDetailResponse{
		Task:      taskSummary(task),
		ProjectID: task.ProjectID,
	}

	for _, comment := range comments {
		response.Comments = append(response.Comments, CommentSummary{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.Author.Name,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}

	for _, attachment := range attachments {
		response.Attachments = append(response.Attachments, attachmentSummary(attachment))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateTaskStatus(ctx *gin.Context) {
	task, ok := findTask(ctx)

	if !ok {
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !isAssignedTo(task, currentUser.ID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the assigned user can change this task's status"})
		return
	}

	var req UpdateTaskStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status, err := types.ParseTaskStatus(req.Status)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task.Status = status

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, task.ProjectID, currentUser.ID,
			fmt.Sprintf("%s moved task %q to %s", currentUser.Name, task.Title, status),
			map[string]interface{}{"action": "task_status_changed", "task_id": task.ID, "status": status})
	})

	if err != nil {
		log.Printf("Failed to update task status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	services.AnnounceActivity(task.ProjectID, currentUser.Name, fmt.Sprintf("moved task %q to %s", task.Title, status))

	redirectToDashboard(ctx, task.ProjectID)
}

func DeleteTask(ctx *gin.Context) {
	task, ok := findTask(ctx)

	if !ok {
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !isAssignedTo(task, currentUser.ID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the assigned user can delete this task"})
		return
	}

	var attachments []models.Attachment

	if err := db.DB.Where("task_id = ?", task.ID).Find(&attachments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachments"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&task).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, task.ProjectID, currentUser.ID,
			fmt.Sprintf("%s deleted task %q", currentUser.Name, task.Title),
			map[string]interface{}{"action": "task_deleted", "task_id": task.ID})
	})

	if err != nil {
		log.Printf("Failed to delete task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	for _, attachment := range attachments {
		if err := storage.Remove(attachment.StoredName); err != nil {
			log.Printf("Failed to remove attachment blob %s: %v", attachment.StoredName, err)
		}
	}

	services.AnnounceActivity(task.ProjectID, currentUser.Name, fmt.Sprintf("deleted task %q", task.Title))

	redirectToDashboard(ctx, task.ProjectID)
}

// AddComment attaches an immutable comment to the task. Any project member
// may comment, regardless of role.
func AddComment(ctx *gin.Context) {
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

	var req AddCommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment := models.Comment{
		TaskID:   task.ID,
		AuthorID: currentUser.ID,
		Body:     req.Body,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, task.ProjectID, currentUser.ID,
			fmt.Sprintf("%s commented on task %q", currentUser.Name, task.Title),
			map[string]interface{}{"action": "comment_added", "task_id": task.ID, "comment_id": comment.ID})
	})

	if err != nil {
		log.Printf("Failed to add comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	services.AnnounceActivity(task.ProjectID, currentUser.Name, fmt.Sprintf("commented on task %q", task.Title))

	redirectToDashboard(ctx, task.ProjectID)
}
