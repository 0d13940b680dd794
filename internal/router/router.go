package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskdeck-dev/taskdeck/internal/handlers"
	"github.com/taskdeck-dev/taskdeck/internal/middleware"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)
	r.POST("/register/", handlers.Register)
	r.POST("/login/", handlers.Login)
	r.POST("/logout/", handlers.Logout)
	r.GET("/me/", middleware.AuthMiddleware(), handlers.Me)

	authed := r.Group("/", middleware.AuthMiddleware())
	{
		authed.GET("", handlers.ListProjects)
		authed.GET("/ws/:project_id", handlers.ActivityFeed)

		projects := authed.Group("/projects")
		{
			projects.POST("/new/", handlers.CreateProject)
			projects.GET("/:project_id/", handlers.GetDashboard)
			projects.POST("/:project_id/delete/", handlers.DeleteProject)
			projects.POST("/:project_id/tasks/new/", handlers.CreateTask)
			projects.POST("/:project_id/add-member/", handlers.AddMember)
			projects.POST("/:project_id/remove/:user_id/", handlers.RemoveMember)
			projects.POST("/:project_id/change_role/:user_id/", handlers.ChangeRole)
		}

		// Path is singular for historical reasons, clients depend on it.
		authed.POST("/project/:project_id/clear-updates/", handlers.ClearUpdates)

		tasks := authed.Group("/tasks")
		{
			tasks.GET("/:task_id/", handlers.GetTask)
			tasks.POST("/:task_id/update-status/", handlers.UpdateTaskStatus)
			tasks.POST("/:task_id/delete/", handlers.DeleteTask)
			tasks.POST("/:task_id/add_comment/", handlers.AddComment)
			tasks.POST("/:task_id/add_attachment/", handlers.AddAttachment)
		}

		attachments := authed.Group("/attachments")
		{
			attachments.POST("/:attachment_id/delete/", handlers.DeleteAttachment)
			attachments.GET("/:attachment_id/download/", handlers.DownloadAttachment)
		}

		invitations := authed.Group("/invitations")
		{
			invitations.GET("/", handlers.ListInvitations)
			invitations.POST("/accept/:invitation_id/", handlers.AcceptInvitation)
			invitations.POST("/decline/:invitation_id/", handlers.DeclineInvitation)
		}
	}

	return r
}
