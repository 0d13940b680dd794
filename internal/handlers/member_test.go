package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/handlers"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func invite(r *gin.Engine, projectID uint, token string, email string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/add-member/", projectID), token, gin.H{"email": email})
}

func TestInviteRequiresAdmin(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, bobToken := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	addMemberDirect(t, bob.ID, projectID, types.RoleMember)

	res := invite(r, projectID, bobToken, "carol@example.com")
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, _ := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	addMemberDirect(t, bob.ID, projectID, types.RoleMember)

	res := invite(r, projectID, aliceToken, "bob@example.com")
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestInviteRejectsDuplicatePending(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := invite(r, projectID, aliceToken, "carol@example.com")
	require.Equal(t, http.StatusSeeOther, res.Code)

	res = invite(r, projectID, aliceToken, "carol@example.com")
	require.Equal(t, http.StatusBadRequest, res.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.ProjectInvitation{}).
		Where("project_id = ?", projectID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAcceptInvitationCreatesMembershipAndDeletesInvitation(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, bobToken := createUser(t, "Bob", "b@x.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := invite(r, projectID, aliceToken, "b@x.com")
	require.Equal(t, http.StatusSeeOther, res.Code)

	var invitation models.ProjectInvitation
	require.NoError(t, db.DB.Where("project_id = ? AND email = ?", projectID, "b@x.com").First(&invitation).Error)

	res = doJSON(r, http.MethodPost, fmt.Sprintf("/invitations/accept/%d/", invitation.ID), bobToken, nil)
	require.Equal(t, http.StatusSeeOther, res.Code)

	var membership models.ProjectMembership
	require.NoError(t, db.DB.Where("user_id = ? AND project_id = ?", bob.ID, projectID).First(&membership).Error)
	require.Equal(t, types.RoleMember, membership.Role)

	var count int64
	require.NoError(t, db.DB.Model(&models.ProjectInvitation{}).Where("id = ?", invitation.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeclineInvitationLeavesNoMembership(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, bobToken := createUser(t, "Bob", "b@x.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := invite(r, projectID, aliceToken, "b@x.com")
	require.Equal(t, http.StatusSeeOther, res.Code)

	var invitation models.ProjectInvitation
	require.NoError(t, db.DB.Where("project_id = ?", projectID).First(&invitation).Error)

	res = doJSON(r, http.MethodPost, fmt.Sprintf("/invitations/decline/%d/", invitation.ID), bobToken, nil)
	require.Equal(t, http.StatusSeeOther, res.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.ProjectInvitation{}).Where("id = ?", invitation.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ? AND project_id = ?", bob.ID, projectID).Count(&count).Error)
	require.Zero(t, count)
}

func TestAcceptInvitationAddressedToSomeoneElse(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	_, mallotyToken := createUser(t, "Mallory", "mallory@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := invite(r, projectID, aliceToken, "b@x.com")
	require.Equal(t, http.StatusSeeOther, res.Code)

	var invitation models.ProjectInvitation
	require.NoError(t, db.DB.Where("project_id = ?", projectID).First(&invitation).Error)

	res = doJSON(r, http.MethodPost, fmt.Sprintf("/invitations/accept/%d/", invitation.ID), mallotyToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestListInvitationsForCurrentUser(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	_, bobToken := createUser(t, "Bob", "b@x.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := invite(r, projectID, aliceToken, "b@x.com")
	require.Equal(t, http.StatusSeeOther, res.Code)

	res = doJSON(r, http.MethodGet, "/invitations/", bobToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Invitations []handlers.PendingInvitation `json:"invitations"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Invitations, 1)
	require.Equal(t, "Launch", body.Invitations[0].ProjectTitle)
	require.Equal(t, "Alice", body.Invitations[0].InvitedBy)
}

func TestAdminCannotRemoveSelf(t *testing.T) {
	r := setupServer(t)
	alice, aliceToken := createUser(t, "Alice", "alice@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")

	res := doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/remove/%d/", projectID, alice.ID), aliceToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ? AND project_id = ?", alice.ID, projectID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRemoveMember(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, _ := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	addMemberDirect(t, bob.ID, projectID, types.RoleMember)

	res := doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/remove/%d/", projectID, bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusSeeOther, res.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ? AND project_id = ?", bob.ID, projectID).Count(&count).Error)
	require.Zero(t, count)
}

func TestChangeRole(t *testing.T) {
	r := setupServer(t)
	_, aliceToken := createUser(t, "Alice", "alice@example.com")
	bob, bobToken := createUser(t, "Bob", "bob@example.com")

	projectID := createProject(t, r, aliceToken, "Launch")
	addMemberDirect(t, bob.ID, projectID, types.RoleMember)

	// A member cannot change roles.
	res := doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/change_role/%d/", projectID, bob.ID), bobToken, gin.H{"role": "ADMIN"})
	require.Equal(t, http.StatusForbidden, res.Code)

	// An invalid role is rejected.
	res = doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/change_role/%d/", projectID, bob.ID), aliceToken, gin.H{"role": "OVERLORD"})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = doJSON(r, http.MethodPost, fmt.Sprintf("/projects/%d/change_role/%d/", projectID, bob.ID), aliceToken, gin.H{"role": "VIEWER"})
	require.Equal(t, http.StatusSeeOther, res.Code)

	var membership models.ProjectMembership
	require.NoError(t, db.DB.Where("user_id = ? AND project_id = ?", bob.ID, projectID).First(&membership).Error)
	require.Equal(t, types.RoleViewer, membership.Role)
}
