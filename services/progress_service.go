package services

import (
	"errors"

	"quizhub/models"

	"gorm.io/gorm"
)

type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

// GetOrCreate lazily creates the user's progress record on first use.
func (s *ProgressService) GetOrCreate(userID uint) (*models.Progress, error) {
	var progress models.Progress
	err := s.db.Where("user_id = ?", userID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = models.Progress{UserID: userID, Score: ""}
	if err := s.db.Create(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// RecordResult routes one answered question into the lifetime score of
// its category. Questions without a category are not aggregated.
func (s *ProgressService) RecordResult(userID uint, question *models.Question, correct bool) error {
	if question.Category == nil || question.Category.Name == "" {
		return nil
	}

	progress, err := s.GetOrCreate(userID)
	if err != nil {
		return err
	}

	score := 0
	if correct {
		score = 1
	}
	progress.UpdateScore(question.Category.Name, score, 1)
	return s.db.Save(progress).Error
}

// AllCategoryScores returns the user's score for every known category,
// backfilling zero triples for categories the stored string has never
// seen and persisting the extension.
func (s *ProgressService) AllCategoryScores(userID uint) (map[string]models.CategoryScore, error) {
	progress, err := s.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, category.Name)
	}

	if progress.EnsureCategories(names) {
		if err := s.db.Save(progress).Error; err != nil {
			return nil, err
		}
	}

	return progress.CategoryScores(), nil
}

// CompletedSittings lists the user's finished attempts for the progress
// dashboard.
func (s *ProgressService) CompletedSittings(userID uint) ([]models.Sitting, error) {
	var sittings []models.Sitting
	err := s.db.Where("user_id = ? AND complete = ?", userID, true).
		Preload("Quiz").
		Order("created_at DESC").
		Find(&sittings).Error
	return sittings, err
}
