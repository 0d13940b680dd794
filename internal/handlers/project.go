package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
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

const dateLayout = "2006-01-02"

type CreateProjectRequest struct {
	Title     string `json:"title" binding:"required"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

type ProjectSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	OwnerID   uint   `json:"owner_id"`
}

type MemberSummary struct {
	UserID uint       `json:"user_id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   types.Role `json:"role"`
}

type TaskSummary struct {
	ID           uint             `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Deadline     string           `json:"deadline"`
	Status       types.TaskStatus `json:"status"`
	AssignedToID *uint            `json:"assigned_to_id"`
}

type UpdateSummary struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type InvitationSummary struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	InvitedByID uint   `json:"invited_by_id"`
}

type DashboardResponse struct {
	Project            ProjectSummary      `json:"project"`
	Role               types.Role          `json:"role"`
	Members            []MemberSummary     `json:"members"`
	Tasks              []TaskSummary       `json:"tasks"`
	RecentUpdates      []UpdateSummary     `json:"recent_updates"`
	PendingInvitations []InvitationSummary `json:"pending_invitations,omitempty"`
}

func projectSummary(project models.Project) ProjectSummary {
	return ProjectSummary{
		ID:        project.ID,
		Title:     project.Title,
		Goal:      project.Goal,
		StartDate: project.StartDate.Format(dateLayout),
		EndDate:   project.EndDate.Format(dateLayout),
		OwnerID:   project.OwnerID,
	}
}

func taskSummary(task models.Task) TaskSummary {
	return TaskSummary{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Deadline:     task.Deadline.Format(dateLayout),
		Status:       task.Status,
		AssignedToID: task.AssignedToID,
	}
}

func redirectToDashboard(ctx *gin.Context, projectID uint) {
	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/projects/%d/", projectID))
}

// CreateProject creates the project and grants the creator an admin
// membership in the same transaction.
func CreateProject(ctx *gin.Context) {
	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, expected YYYY-MM-DD"})
		return
	}

	endDate, err := time.Parse(dateLayout, req.EndDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, expected YYYY-MM-DD"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project := models.Project{
		Title:     req.Title,
		Goal:      req.Goal,
		StartDate: startDate,
		EndDate:   endDate,
		OwnerID:   currentUser.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.ProjectMembership{
			UserID:    currentUser.ID,
			ProjectID: project.ID,
			Role:      types.RoleAdmin,
		}

		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, project.ID, currentUser.ID,
			fmt.Sprintf("%s created the project", currentUser.Name),
			map[string]interface{}{"action": "project_created"})
	})

	if err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	services.AnnounceActivity(project.ID, currentUser.Name, "created the project")

	redirectToDashboard(ctx, project.ID)
}

// ListProjects returns the projects the user holds a membership on.
func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = db.DB.
		Joins("JOIN project_memberships ON project_memberships.project_id = projects.id").
		Where("project_memberships.user_id = ?", userID).
		Find(&projects).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectSummary, 0, len(projects))

	for _, project := range projects {
		response = append(response, projectSummary(project))
	}

	ctx.JSON(http.StatusOK, gin.H{"projects": response})
}

// GetDashboard renders the project dashboard: members, the task list under
// the optional status/assigned filters and sort key, and recent activity.
func GetDashboard(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	role, ok := authz.RoleOf(userID, projectID)

	if !ok {
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

	query := db.DB.Where("project_id = ?", projectID)

	if rawStatus := ctx.Query("status"); rawStatus != "" {
		status, err := types.ParseTaskStatus(rawStatus)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query = query.Where("status = ?", status)
	}

	if rawAssigned := ctx.Query("assigned"); rawAssigned != "" {
		assignedID, err := strconv.ParseUint(rawAssigned, 10, 32)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assigned filter"})
			return
		}
		query = query.Where("assigned_to_id = ?", uint(assignedID))
	}

	switch ctx.Query("sort") {
	case "deadline":
		query = query.Order("deadline ASC")
	case "deadline_desc":
		query = query.Order("deadline DESC")
	case "status":
		query = query.Order("status ASC")
	case "":
		query = query.Order("id ASC")
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort key"})
		return
	}

	var tasks []models.Task

	if err := query.Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("User").Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	var updates []models.Update

	if err := db.DB.Where("project_id = ?", projectID).Order("created_at DESC").Limit(5).Find(&updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve updates"})
		return
	}

	response := DashboardResponse{
		Project: projectSummary(project),
		Role:    role,
	}

	for _, task := range tasks {
		response.Tasks = append(response.Tasks, taskSummary(task))
	}

	for _, membership := range memberships {
		response.Members = append(response.Members, MemberSummary{
			UserID: membership.UserID,
			Name:   membership.User.Name,
			Email:  membership.User.Email,
			Role:   membership.Role,
		})
	}

	for _, update := range updates {
		response.RecentUpdates = append(response.RecentUpdates, UpdateSummary{
			ID:        update.ID,
			UserID:    update.UserID,
			Text:      update.Text,
			CreatedAt: update.CreatedAt,
		})
	}

	// Pending invitations are admin-facing only.
	if role == types.RoleAdmin {
		var invitations []models.ProjectInvitation

		if err := db.DB.Where("project_id = ?", projectID).Find(&invitations).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invitations"})
			return
		}

		for _, invitation := range invitations {
			response.PendingInvitations = append(response.PendingInvitations, InvitationSummary{
				ID:          invitation.ID,
				Email:       invitation.Email,
				InvitedByID: invitation.InvitedByID,
			})
		}
	}

	ctx.JSON(http.StatusOK, response)
}

// DeleteProject removes the project and everything under it.
func DeleteProject(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsAdmin(userID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can delete a project"})
		return
	}

	var project models.Project

	if err := db.DB.Preload("Tasks.Attachments").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if err := db.DB.Delete(&project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	// Blob cleanup is best effort once the rows are gone.
	for _, task := range project.Tasks {
		for _, attachment := range task.Attachments {
			if err := storage.Remove(attachment.StoredName); err != nil {
				log.Printf("Failed to remove attachment blob %s: %v", attachment.StoredName, err)
			}
		}
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

// ClearUpdates wipes the project's activity log. Admin only, scoped to the
// one project.
func ClearUpdates(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsAdmin(userID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can clear the activity log"})
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

	if err := db.DB.Where("project_id = ?", projectID).Delete(&models.Update{}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear updates"})
		return
	}

	redirectToDashboard(ctx, projectID)
}
