package handlers

import (
	"net/http"

	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

// Dashboard returns the user's lifetime per-category scores and their
// completed sittings.
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	scores, err := h.progressService.AllCategoryScores(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sittings, err := h.progressService.CompletedSittings(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	exams := make([]gin.H, 0, len(sittings))
	for i := range sittings {
		sitting := &sittings[i]
		exams = append(exams, gin.H{
			"id":        sitting.ID,
			"quiz":      sitting.Quiz.Title,
			"score":     sitting.CurrentScore,
			"max_score": sitting.MaxScore(),
			"percent":   sitting.PercentCorrect(),
			"end":       sitting.End,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"category_scores": scores,
		"exams":           exams,
	})
}
