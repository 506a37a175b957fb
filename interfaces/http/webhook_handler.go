package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcollab/infrastructure/logger"
	"foodcollab/usecase"
)

type IWebhookHandler interface {
	Verify(ctx *gin.Context)
	Receive(ctx *gin.Context)
}

type webhookHandler struct {
	webhookUsecase usecase.IWebhookUsecase
}

func NewWebhookHandler(webhookUsecase usecase.IWebhookUsecase) IWebhookHandler {
	return &webhookHandler{webhookUsecase: webhookUsecase}
}

// Verify answers the provider's subscription handshake. The challenge is
// echoed verbatim; nothing is persisted.
func (h *webhookHandler) Verify(c *gin.Context) {
	challenge, ok := h.webhookUsecase.VerifyHandshake(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if !ok {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	c.String(http.StatusOK, "%s", challenge)
}

// Receive acknowledges receipt unless the body cannot be parsed. Per-entry
// failures are handled inside the usecase and never fail the request.
func (h *webhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable body"})
		return
	}
	if err := h.webhookUsecase.ProcessEvents(c.Request.Context(), body); err != nil {
		logger.GetLogger().WithField("error", err).Warn("webhook payload rejected")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
