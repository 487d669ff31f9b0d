package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"quizhub/middleware"
	"quizhub/models"
	"quizhub/services"

	"github.com/gin-gonic/gin"
)

type SittingHandler struct {
	catalogService  *services.CatalogService
	sittingService  *services.SittingService
	progressService *services.ProgressService
}

func NewSittingHandler(
	catalogService *services.CatalogService,
	sittingService *services.SittingService,
	progressService *services.ProgressService,
) *SittingHandler {
	return &SittingHandler{
		catalogService:  catalogService,
		sittingService:  sittingService,
		progressService: progressService,
	}
}

type submitAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

// TakeQuiz resumes or creates the user's sitting and serves the next
// unanswered question. A completed single-attempt quiz reports blocked
// instead of a question.
func (h *SittingHandler) TakeQuiz(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	quiz, err := h.catalogService.GetQuizBySlug(c.Param("slug"), middleware.IsStaff(c))
	if err != nil {
		h.renderQuizError(c, err)
		return
	}

	sitting, blocked, err := h.sittingService.GetOrCreateSitting(userID.(uint), quiz)
	if err != nil {
		if errors.Is(err, models.ErrQuizNoQuestions) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quiz has no questions configured"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if blocked {
		c.JSON(http.StatusOK, gin.H{
			"blocked": true,
			"message": "You have already sat this exam and only one sitting is permitted",
		})
		return
	}

	question, err := h.sittingService.NextQuestion(sitting)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if question == nil {
		// Queue already exhausted, e.g. a resumed sitting whose last
		// answer was submitted just before a crash
		h.renderFinalResult(c, sitting, quiz)
		return
	}

	answered, total := sitting.Progress()
	if state := h.sittingService.CachedState(sitting.UserID, quiz.ID); state != nil {
		answered, total = state.Answered, state.Total
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz": gin.H{
			"title":          quiz.Title,
			"slug":           quiz.Slug,
			"answers_at_end": quiz.AnswersAtEnd,
		},
		"question": questionView(question, false),
		"progress": gin.H{"answered": answered, "total": total},
	})
}

// SubmitAnswer grades one answer, advances the sitting and either
// serves the next question or the final result.
func (h *SittingHandler) SubmitAnswer(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.catalogService.GetQuizBySlug(c.Param("slug"), middleware.IsStaff(c))
	if err != nil {
		h.renderQuizError(c, err)
		return
	}

	sitting, blocked, err := h.sittingService.GetOrCreateSitting(userID.(uint), quiz)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if blocked {
		c.JSON(http.StatusOK, gin.H{
			"blocked": true,
			"message": "You have already sat this exam and only one sitting is permitted",
		})
		return
	}

	question, err := h.sittingService.NextQuestion(sitting)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if question == nil {
		h.renderFinalResult(c, sitting, quiz)
		return
	}
	if question.ID != req.QuestionID {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Submitted question is not the current question",
			"expected": question.ID,
		})
		return
	}

	correct, err := h.sittingService.SubmitAnswer(sitting, question, req.Answer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.progressService.RecordResult(userID.(uint), question, correct); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{}
	if !quiz.AnswersAtEnd {
		resp["previous"] = gin.H{
			"question_id": question.ID,
			"answer":      req.Answer,
			"correct":     correct,
			"explanation": question.Explanation,
			"answers":     question.AnswersForDisplay(true),
		}
	}

	if _, ok := sitting.FirstQuestionID(); !ok {
		summary, err := h.sittingService.Finalize(sitting, quiz)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["complete"] = true
		resp["result"] = summary
		if quiz.AnswersAtEnd {
			resp["questions"] = h.reviewQuestions(sitting)
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	next, err := h.sittingService.NextQuestion(sitting)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	answered, total := sitting.Progress()
	resp["question"] = questionView(next, false)
	resp["progress"] = gin.H{"answered": answered, "total": total}
	c.JSON(http.StatusOK, resp)
}

// ListMarking returns completed sittings for reviewers, filterable by
// quiz title and username.
func (h *SittingHandler) ListMarking(c *gin.Context) {
	sittings, err := h.sittingService.ListCompletedSittings(
		c.Query("quiz_filter"),
		c.Query("user_filter"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]gin.H, 0, len(sittings))
	for i := range sittings {
		sitting := &sittings[i]
		views = append(views, gin.H{
			"id":        sitting.ID,
			"user":      sitting.User.Username,
			"quiz":      sitting.Quiz.Title,
			"score":     sitting.CurrentScore,
			"max_score": sitting.MaxScore(),
			"percent":   sitting.PercentCorrect(),
			"end":       sitting.End,
		})
	}

	c.JSON(http.StatusOK, views)
}

// MarkingDetail shows one completed sitting with every question, the
// answer given and the correct choices.
func (h *SittingHandler) MarkingDetail(c *gin.Context) {
	sitting, err := h.loadSitting(c)
	if err != nil {
		return
	}

	answers, err := sitting.AnswerMap()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	incorrect := make(map[uint]bool)
	for _, id := range sitting.IncorrectIDs() {
		incorrect[id] = true
	}

	questions, err := h.sittingService.SittingQuestions(sitting)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]gin.H, 0, len(questions))
	for i := range questions {
		question := &questions[i]
		views = append(views, gin.H{
			"question":     questionView(question, true),
			"given_answer": answers[strconv.FormatUint(uint64(question.ID), 10)],
			"incorrect":    incorrect[question.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        sitting.ID,
		"user":      sitting.User.Username,
		"quiz":      sitting.Quiz.Title,
		"score":     sitting.CurrentScore,
		"max_score": sitting.MaxScore(),
		"percent":   sitting.PercentCorrect(),
		"questions": views,
	})
}

// ToggleIncorrect is the reviewer override on one question of a
// sitting.
func (h *SittingHandler) ToggleIncorrect(c *gin.Context) {
	sitting, err := h.loadSitting(c)
	if err != nil {
		return
	}

	var req struct {
		QuestionID uint `json:"question_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nowIncorrect, err := h.sittingService.ToggleIncorrect(sitting, req.QuestionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question is not part of this sitting"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question_id": req.QuestionID,
		"incorrect":   nowIncorrect,
		"score":       sitting.CurrentScore,
	})
}

func (h *SittingHandler) loadSitting(c *gin.Context) (*models.Sitting, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sitting ID"})
		return nil, err
	}

	sitting, err := h.sittingService.GetSitting(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sitting not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, err
	}
	return sitting, nil
}

func (h *SittingHandler) renderFinalResult(c *gin.Context, sitting *models.Sitting, quiz *models.Quiz) {
	summary, err := h.sittingService.Finalize(sitting, quiz)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"complete": true, "result": summary}
	if quiz.AnswersAtEnd {
		resp["questions"] = h.reviewQuestions(sitting)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SittingHandler) reviewQuestions(sitting *models.Sitting) []gin.H {
	questions, err := h.sittingService.SittingQuestions(sitting)
	if err != nil {
		return nil
	}

	answers, err := sitting.AnswerMap()
	if err != nil {
		answers = map[string]string{}
	}

	views := make([]gin.H, 0, len(questions))
	for i := range questions {
		question := &questions[i]
		views = append(views, gin.H{
			"question":     questionView(question, true),
			"given_answer": answers[strconv.FormatUint(uint64(question.ID), 10)],
		})
	}
	return views
}

func (h *SittingHandler) renderQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
	case errors.Is(err, models.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Quiz is not published"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// questionView renders a question for the API. Correct flags are only
// included for review and marking surfaces.
func questionView(question *models.Question, withCorrect bool) gin.H {
	view := gin.H{
		"id":      question.ID,
		"type":    question.Type,
		"content": question.Content,
		"answers": question.AnswersForDisplay(withCorrect),
	}
	if question.Figure != "" {
		view["figure"] = question.Figure
	}
	if question.Category != nil {
		view["category"] = question.Category.Name
	}
	if withCorrect {
		view["explanation"] = question.Explanation
	}
	return view
}
