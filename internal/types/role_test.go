package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"ADMIN", "MEMBER", "VIEWER"} {
		role, err := types.ParseRole(valid)
		require.NoError(t, err)
		require.Equal(t, types.Role(valid), role)
	}

	_, err := types.ParseRole("admin")
	require.Error(t, err)

	_, err = types.ParseRole("")
	require.Error(t, err)
}

func TestCanManageMembers(t *testing.T) {
	require.True(t, types.RoleAdmin.CanManageMembers())
	require.False(t, types.RoleMember.CanManageMembers())
	require.False(t, types.RoleViewer.CanManageMembers())
}

func TestParseTaskStatus(t *testing.T) {
	for _, valid := range []string{"TODO", "IN_PROGRESS", "DONE"} {
		status, err := types.ParseTaskStatus(valid)
		require.NoError(t, err)
		require.Equal(t, types.TaskStatus(valid), status)
	}

	_, err := types.ParseTaskStatus("SHIPPED")
	require.Error(t, err)
}
