package handlers

import (
	"errors"
	"net/http"

	"quizhub/middleware"
	"quizhub/models"
	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.catalogService.ListQuizzes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

func (h *CatalogHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.catalogService.GetQuizBySlug(c.Param("slug"), middleware.IsStaff(c))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		case errors.Is(err, models.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "Quiz is not published"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	// Strip correctness flags from the public detail view
	view := gin.H{
		"id":             quiz.ID,
		"title":          quiz.Title,
		"slug":           quiz.Slug,
		"description":    quiz.Description,
		"category":       quiz.Category,
		"random_order":   quiz.RandomOrder,
		"answers_at_end": quiz.AnswersAtEnd,
		"exam_paper":     quiz.ExamPaper,
		"single_attempt": quiz.SingleAttempt,
		"draft":          quiz.Draft,
		"max_questions":  quiz.MaxQuestions,
		"pass_mark":      quiz.PassMark,
		"question_count": len(quiz.Questions),
	}
	c.JSON(http.StatusOK, view)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) ListQuizzesByCategory(c *gin.Context) {
	quizzes, err := h.catalogService.ListQuizzesByCategory(c.Param("name"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.catalogService.CreateCategory(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.catalogService.CreateQuiz(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

func (h *CatalogHandler) UpdateQuiz(c *gin.Context) {
	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.catalogService.UpdateQuiz(c.Param("slug"), &req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *CatalogHandler) DeleteQuiz(c *gin.Context) {
	if err := h.catalogService.DeleteQuiz(c.Param("slug")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted successfully"})
}
