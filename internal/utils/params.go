package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func idParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, fmt.Errorf("%s not found", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "project_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "task_id")
}

func GetAttachmentID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "attachment_id")
}

func GetInvitationID(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "invitation_id")
}

func GetUserIDParam(ctx *gin.Context) (uint, error) {
	return idParam(ctx, "user_id")
}
