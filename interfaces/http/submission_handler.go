package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodcollab/infrastructure/logger"
	"foodcollab/infrastructure/persistence"
	"foodcollab/usecase"
)

type ISubmissionHandler interface {
	Create(ctx *gin.Context)
	SubmitStory(ctx *gin.Context)
	List(ctx *gin.Context)
}

type submissionHandler struct {
	submissionUsecase usecase.ISubmissionUsecase
}

func NewSubmissionHandler(submissionUsecase usecase.ISubmissionUsecase) ISubmissionHandler {
	return &submissionHandler{submissionUsecase: submissionUsecase}
}

type reqCreateSubmission struct {
	CollaborationID int64 `json:"collaboration_id" binding:"required"`
}

func (h *submissionHandler) Create(c *gin.Context) {
	var req reqCreateSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := h.submissionUsecase.Create(c.Request.Context(), c.GetString("user_id"), req.CollaborationID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to create submission")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create submission"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

type reqSubmitStory struct {
	ContentURL      string `json:"content_url" binding:"required"`
	ExternalMediaID string `json:"external_media_id" binding:"required"`
}

func (h *submissionHandler) SubmitStory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	var req reqSubmitStory
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verification, err := h.submissionUsecase.SubmitStory(c.Request.Context(), id, c.GetString("user_id"), req.ContentURL, req.ExternalMediaID)
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "submission is not awaiting a story"})
			return
		}
		logger.GetLogger().WithField("error", err).WithField("submission_id", id).Error("failed to submit story")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit story"})
		return
	}
	c.JSON(http.StatusOK, verification)
}

func (h *submissionHandler) List(c *gin.Context) {
	list, err := h.submissionUsecase.List(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to list submissions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list submissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
