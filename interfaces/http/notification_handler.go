package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcollab/domain/repository"
	"foodcollab/infrastructure/logger"
)

type INotificationHandler interface {
	List(ctx *gin.Context)
}

type notificationHandler struct {
	notificationRepo repository.INotification
}

func NewNotificationHandler(notificationRepo repository.INotification) INotificationHandler {
	return &notificationHandler{notificationRepo: notificationRepo}
}

func (h *notificationHandler) List(c *gin.Context) {
	list, err := h.notificationRepo.ListByUser(c.Request.Context(), c.GetString("user_id"), 50)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
