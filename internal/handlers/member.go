package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/authz"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/services"
	"github.com/taskdeck-dev/taskdeck/internal/types"
	"github.com/taskdeck-dev/taskdeck/internal/utils"
	"gorm.io/gorm"
)

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type PendingInvitation struct {
	ID           uint   `json:"id"`
	ProjectID    uint   `json:"project_id"`
	ProjectTitle string `json:"project_title"`
	InvitedBy    string `json:"invited_by"`
}

// AddMember creates a pending invitation addressed to an email. The address
// does not have to belong to a registered user yet. Admin only.
func AddMember(ctx *gin.Context) {
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

	if !authz.IsAdmin(currentUser.ID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can invite members"})
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

	var req AddMemberRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// An address that already maps to a member cannot be invited again.
	var invitee models.User

	err = db.DB.Where("email = ?", email).First(&invitee).Error

	if err == nil && authz.IsMember(invitee.ID, projectID) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "This email already belongs to a project member"})
		return
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking invitee: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	invitation := models.ProjectInvitation{
		ProjectID:   projectID,
		Email:       email,
		InvitedByID: currentUser.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invitation).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, projectID, currentUser.ID,
			fmt.Sprintf("%s invited %s", currentUser.Name, email),
			map[string]interface{}{"action": "member_invited", "email": email})
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "This email already has a pending invitation"})
			return
		}
		log.Printf("Failed to create invitation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	services.AnnounceActivity(projectID, currentUser.Name, fmt.Sprintf("invited %s", email))

	redirectToDashboard(ctx, projectID)
}

// ListInvitations returns the pending invitations addressed to the
// authenticated user's email.
func ListInvitations(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var invitations []models.ProjectInvitation

	err = db.DB.Preload("Project").Preload("InvitedBy").
		Where("email = ?", strings.ToLower(currentUser.Email)).
		Find(&invitations).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invitations"})
		return
	}

	response := make([]PendingInvitation, 0, len(invitations))

	for _, invitation := range invitations {
		response = append(response, PendingInvitation{
			ID:           invitation.ID,
			ProjectID:    invitation.ProjectID,
			ProjectTitle: invitation.Project.Title,
			InvitedBy:    invitation.InvitedBy.Name,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"invitations": response})
}

func findInvitationFor(ctx *gin.Context) (models.ProjectInvitation, bool) {
	var invitation models.ProjectInvitation

	invitationID, err := utils.GetInvitationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return invitation, false
	}

	if err := db.DB.First(&invitation, invitationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invitation"})
		}
		return invitation, false
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return invitation, false
	}

	if !strings.EqualFold(invitation.Email, currentUser.Email) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "This invitation is not addressed to you"})
		return invitation, false
	}

	return invitation, true
}

// AcceptInvitation turns the invitation into a MEMBER membership and
// removes the invitation row, in one transaction. The invitation never
// survives resolution in any state.
func AcceptInvitation(ctx *gin.Context) {
	invitation, ok := findInvitationFor(ctx)

	if !ok {
		return
	}

	currentUser, _ := utils.GetCurrentUser(ctx)

	membership := models.ProjectMembership{
		UserID:    currentUser.ID,
		ProjectID: invitation.ProjectID,
		Role:      types.RoleMember,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		if err := tx.Delete(&invitation).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, invitation.ProjectID, currentUser.ID,
			fmt.Sprintf("%s joined the project", currentUser.Name),
			map[string]interface{}{"action": "member_joined"})
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "You are already a member of this project"})
			return
		}
		log.Printf("Failed to accept invitation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	services.AnnounceActivity(invitation.ProjectID, currentUser.Name, "joined the project")

	redirectToDashboard(ctx, invitation.ProjectID)
}

// DeclineInvitation removes the invitation without creating a membership.
func DeclineInvitation(ctx *gin.Context) {
	invitation, ok := findInvitationFor(ctx)

	if !ok {
		return
	}

	if err := db.DB.Delete(&invitation).Error; err != nil {
		log.Printf("Failed to decline invitation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline invitation"})
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

// RemoveMember deletes a membership. Admin only, and an admin can never
// remove their own membership, even when other admins exist.
func RemoveMember(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsAdmin(currentUser.ID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can remove members"})
		return
	}

	if targetUserID == currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You cannot remove your own membership"})
		return
	}

	var membership models.ProjectMembership

	err = db.DB.Preload("User").Where("user_id = ? AND project_id = ?", targetUserID, projectID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership"})
		}
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&membership).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, projectID, currentUser.ID,
			fmt.Sprintf("%s removed %s from the project", currentUser.Name, membership.User.Name),
			map[string]interface{}{"action": "member_removed", "user_id": targetUserID})
	})

	if err != nil {
		log.Printf("Failed to remove member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	services.AnnounceActivity(projectID, currentUser.Name, fmt.Sprintf("removed %s from the project", membership.User.Name))

	redirectToDashboard(ctx, projectID)
}

// ChangeRole sets a member's role to one of ADMIN, MEMBER or VIEWER.
func ChangeRole(ctx *gin.Context) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.IsAdmin(currentUser.ID, projectID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admins can change roles"})
		return
	}

	var req ChangeRoleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	role, err := types.ParseRole(req.Role)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var membership models.ProjectMembership

	err = db.DB.Preload("User").Where("user_id = ? AND project_id = ?", targetUserID, projectID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership"})
		}
		return
	}

	membership.Role = role

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&membership).Error; err != nil {
			return err
		}

		return services.RecordActivity(tx, projectID, currentUser.ID,
			fmt.Sprintf("%s changed %s's role to %s", currentUser.Name, membership.User.Name, role),
			map[string]interface{}{"action": "role_changed", "user_id": targetUserID, "role": role})
	})

	if err != nil {
		log.Printf("Failed to change role: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
		return
	}

	services.AnnounceActivity(projectID, currentUser.Name, fmt.Sprintf("changed %s's role to %s", membership.User.Name, role))

	redirectToDashboard(ctx, projectID)
}
