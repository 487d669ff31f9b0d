package services

import (
	"errors"

	"quizhub/models"

	"gorm.io/gorm"
)

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
	Correct bool   `json:"correct"`
	Order   int    `json:"order"`
}

type CreateQuestionRequest struct {
	Type        string                `json:"type" binding:"required,oneof=single_choice true_false essay"`
	Category    string                `json:"category"`
	Content     string                `json:"content" binding:"required"`
	Explanation string                `json:"explanation"`
	Figure      string                `json:"figure"`
	// CorrectAnswer applies to true_false questions only.
	CorrectAnswer bool                  `json:"correct_answer"`
	Answers       []CreateAnswerRequest `json:"answers" binding:"omitempty,max=6,dive"`
}

type CreateQuizRequest struct {
	Title         string                  `json:"title" binding:"required"`
	Slug          string                  `json:"slug" binding:"required,quizslug"`
	Description   string                  `json:"description"`
	Category      string                  `json:"category"`
	RandomOrder   bool                    `json:"random_order"`
	AnswersAtEnd  bool                    `json:"answers_at_end"`
	ExamPaper     bool                    `json:"exam_paper"`
	SingleAttempt bool                    `json:"single_attempt"`
	Draft         bool                    `json:"draft"`
	MaxQuestions  uint                    `json:"max_questions"`
	PassMark      int                     `json:"pass_mark" binding:"min=0,max=100"`
	SuccessText   string                  `json:"success_text"`
	FailText      string                  `json:"fail_text"`
	Questions     []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type UpdateQuizRequest struct {
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Category      string                  `json:"category"`
	RandomOrder   *bool                   `json:"random_order"`
	AnswersAtEnd  *bool                   `json:"answers_at_end"`
	ExamPaper     *bool                   `json:"exam_paper"`
	SingleAttempt *bool                   `json:"single_attempt"`
	Draft         *bool                   `json:"draft"`
	MaxQuestions  *uint                   `json:"max_questions"`
	PassMark      *int                    `json:"pass_mark" binding:"omitempty,min=0,max=100"`
	SuccessText   *string                 `json:"success_text"`
	FailText      *string                 `json:"fail_text"`
	Questions     []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

func (s *CatalogService) CreateCategory(name string) (*models.Category, error) {
	category := models.Category{Name: name}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CatalogService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Order("name").Find(&categories).Error
	return categories, err
}

func (s *CatalogService) ListQuizzes() ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("draft = ?", false).
		Preload("Category").
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *CatalogService) ListQuizzesByCategory(name string) ([]models.Quiz, error) {
	var category models.Category
	if err := s.db.Where("name = ?", models.NormalizeCategoryName(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	var quizzes []models.Quiz
	err := s.db.Where("category_id = ? AND draft = ?", category.ID, false).
		Preload("Category").
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// GetQuizBySlug loads a quiz with its questions ordered by category and
// their answer choices in option order. Draft quizzes are only visible
// when includeDraft is set (staff callers).
func (s *CatalogService) GetQuizBySlug(slug string, includeDraft bool) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("slug = ?", models.NormalizeSlug(slug)).
		Preload("Category").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.category_id")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order")
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	if quiz.Draft && !includeDraft {
		return nil, models.ErrPermissionDenied
	}

	return &quiz, nil
}

func (s *CatalogService) CreateQuiz(req *CreateQuizRequest) (*models.Quiz, error) {
	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	quiz := models.Quiz{
		Title:         req.Title,
		Slug:          req.Slug,
		Description:   req.Description,
		RandomOrder:   req.RandomOrder,
		AnswersAtEnd:  req.AnswersAtEnd,
		ExamPaper:     req.ExamPaper,
		SingleAttempt: req.SingleAttempt,
		Draft:         req.Draft,
		MaxQuestions:  req.MaxQuestions,
		PassMark:      req.PassMark,
		SuccessText:   req.SuccessText,
		FailText:      req.FailText,
	}

	if req.Category != "" {
		category, err := getOrCreateCategory(tx, req.Category)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		quiz.CategoryID = &category.ID
	}

	if err := tx.Create(&quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createQuizQuestions(tx, &quiz, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizBySlug(quiz.Slug, true)
}

func (s *CatalogService) UpdateQuiz(slug string, req *UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.GetQuizBySlug(slug, true)
	if err != nil {
		return nil, err
	}

	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != "" {
		quiz.Description = req.Description
	}
	if req.Category != "" {
		category, err := getOrCreateCategory(tx, req.Category)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		quiz.CategoryID = &category.ID
	}
	if req.RandomOrder != nil {
		quiz.RandomOrder = *req.RandomOrder
	}
	if req.AnswersAtEnd != nil {
		quiz.AnswersAtEnd = *req.AnswersAtEnd
	}
	if req.ExamPaper != nil {
		quiz.ExamPaper = *req.ExamPaper
	}
	if req.SingleAttempt != nil {
		quiz.SingleAttempt = *req.SingleAttempt
	}
	if req.Draft != nil {
		quiz.Draft = *req.Draft
	}
	if req.MaxQuestions != nil {
		quiz.MaxQuestions = *req.MaxQuestions
	}
	if req.PassMark != nil {
		quiz.PassMark = *req.PassMark
	}
	if req.SuccessText != nil {
		quiz.SuccessText = *req.SuccessText
	}
	if req.FailText != nil {
		quiz.FailText = *req.FailText
	}

	quiz.Questions = nil
	quiz.Category = nil
	if err := tx.Save(quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// If questions are provided, replace the quiz's question set
	if req.Questions != nil {
		if err := tx.Model(quiz).Association("Questions").Clear(); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := createQuizQuestions(tx, quiz, req.Questions); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizBySlug(quiz.Slug, true)
}

func (s *CatalogService) DeleteQuiz(slug string) error {
	quiz, err := s.GetQuizBySlug(slug, true)
	if err != nil {
		return err
	}
	return s.db.Delete(&models.Quiz{}, quiz.ID).Error
}

func createQuizQuestions(tx *gorm.DB, quiz *models.Quiz, requests []CreateQuestionRequest) error {
	for _, qReq := range requests {
		question := models.Question{
			Type:          models.QuestionType(qReq.Type),
			Content:       qReq.Content,
			Explanation:   qReq.Explanation,
			Figure:        qReq.Figure,
			CorrectAnswer: qReq.CorrectAnswer,
		}

		if qReq.Category != "" {
			category, err := getOrCreateCategory(tx, qReq.Category)
			if err != nil {
				return err
			}
			question.CategoryID = &category.ID
		}

		// Single-choice questions must carry exactly one correct option
		if question.Type == models.QuestionSingleChoice {
			correctCount := 0
			for _, aReq := range qReq.Answers {
				if aReq.Correct {
					correctCount++
				}
			}
			if correctCount != 1 {
				return errors.New("each single-choice question must have exactly one correct answer")
			}
		}

		if err := tx.Create(&question).Error; err != nil {
			return err
		}

		if question.Type == models.QuestionSingleChoice {
			for _, aReq := range qReq.Answers {
				answer := models.Answer{
					QuestionID: question.ID,
					Content:    aReq.Content,
					Correct:    aReq.Correct,
					Order:      aReq.Order,
				}
				if err := tx.Create(&answer).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Model(quiz).Association("Questions").Append(&question); err != nil {
			return err
		}
	}
	return nil
}

func getOrCreateCategory(tx *gorm.DB, name string) (*models.Category, error) {
	normalized := models.NormalizeCategoryName(name)
	var category models.Category
	err := tx.Where("name = ?", normalized).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{Name: normalized}
	if err := tx.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
