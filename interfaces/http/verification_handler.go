package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcollab/infrastructure/logger"
	"foodcollab/usecase"
)

type IVerificationHandler interface {
	Process(ctx *gin.Context)
}

type verificationHandler struct {
	verificationUsecase usecase.IVerificationUsecase
}

func NewVerificationHandler(verificationUsecase usecase.IVerificationUsecase) IVerificationHandler {
	return &verificationHandler{verificationUsecase: verificationUsecase}
}

// Process triggers one worker pass on demand, same as the scheduled tick.
func (h *verificationHandler) Process(c *gin.Context) {
	if err := h.verificationUsecase.ProcessPending(c.Request.Context()); err != nil {
		logger.GetLogger().WithField("error", err).Error("manual verification run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification run failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
