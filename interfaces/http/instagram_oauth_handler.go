package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"foodcollab/infrastructure/logger"
	"foodcollab/usecase"
)

type IInstagramOAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
	Status(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type instagramOAuthHandler struct {
	connectUsecase usecase.IConnectUsecase
}

func NewInstagramOAuthHandler(connectUsecase usecase.IConnectUsecase) IInstagramOAuthHandler {
	return &instagramOAuthHandler{connectUsecase: connectUsecase}
}

// GetAuthURL issues a state token and returns the provider authorization URL.
func (h *instagramOAuthHandler) GetAuthURL(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	authURL, err := h.connectUsecase.AuthURL(c.Request.Context(), userID, c.Query("redirect"))
	if err != nil {
		if errors.Is(err, usecase.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "instagram oauth not configured"})
			return
		}
		logger.GetLogger().WithField("error", err).Error("failed to issue oauth state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start connect flow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": authURL})
}

// Callback always answers with a redirect; the browser never stays on an error page.
func (h *instagramOAuthHandler) Callback(c *gin.Context) {
	result := h.connectUsecase.HandleCallback(c.Request.Context(), usecase.CallbackParams{
		Code:        c.Query("code"),
		State:       c.Query("state"),
		Error:       c.Query("error"),
		ErrorReason: c.Query("error_reason"),
	})
	target := result.RedirectPath
	if result.Success {
		target += "?success=true"
	} else {
		target += "?error=" + url.QueryEscape(result.Reason)
	}
	c.Redirect(http.StatusFound, target)
}

func (h *instagramOAuthHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")
	conn, err := h.connectUsecase.Status(c.Request.Context(), userID)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("failed to read connection status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	resp := gin.H{"connected": conn.Connected}
	if conn.Connected {
		resp["username"] = conn.Username
		resp["business_id"] = conn.BusinessID
		resp["account_type"] = conn.AccountType
		if conn.TokenExpiresAt != nil {
			resp["token_expires_at"] = conn.TokenExpiresAt
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *instagramOAuthHandler) Disconnect(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.connectUsecase.Disconnect(c.Request.Context(), userID); err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("failed to disconnect instagram")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "disconnect failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
