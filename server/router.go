package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"foodcollab/infrastructure/realtime"
	httpHandler "foodcollab/interfaces/http"
	"foodcollab/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	instagramOAuthHandler httpHandler.IInstagramOAuthHandler,
	webhookHandler httpHandler.IWebhookHandler,
	submissionHandler httpHandler.ISubmissionHandler,
	notificationHandler httpHandler.INotificationHandler,
	verificationHandler httpHandler.IVerificationHandler,
	notificationHub *realtime.Hub,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://foodcollab.app", "https://admin.foodcollab.app", "http://localhost:4200", "http://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)

	// The provider calls these directly; they must stay outside the auth group.
	router.GET("/auth/instagram/callback", instagramOAuthHandler.Callback)
	router.GET("/webhooks/instagram", webhookHandler.Verify)
	router.POST("/webhooks/instagram", webhookHandler.Receive)

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	api.GET("/auth/instagram", instagramOAuthHandler.GetAuthURL)
	api.GET("/instagram/status", instagramOAuthHandler.Status)
	api.POST("/instagram/disconnect", instagramOAuthHandler.Disconnect)

	api.POST("/submissions", submissionHandler.Create)
	api.GET("/submissions", submissionHandler.List)
	api.POST("/submissions/:id/story", submissionHandler.SubmitStory)

	api.GET("/notifications", notificationHandler.List)
	if notificationHub != nil {
		api.GET("/notifications/stream", notificationHub.Serve)
	}

	api.POST("/verifications/process", verificationHandler.Process)

	return router
}
