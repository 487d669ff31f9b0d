package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"quizhub/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SittingService struct {
	db             *gorm.DB
	redis          *redis.Client
	retainSittings bool
}

func NewSittingService(db *gorm.DB, redisClient *redis.Client, retainSittings bool) *SittingService {
	return &SittingService{
		db:             db,
		redis:          redisClient,
		retainSittings: retainSittings,
	}
}

// SittingState is the cached snapshot of an active sitting, mirrored to
// Redis after every mutation. The database row stays authoritative; the
// cache only feeds the take-page progress display.
type SittingState struct {
	SittingID uint `json:"sitting_id"`
	QuizID    uint `json:"quiz_id"`
	Answered  int  `json:"answered"`
	Total     int  `json:"total"`
	Score     int  `json:"score"`
	Complete  bool `json:"complete"`
}

// ScoreSummary is the result of a finalized sitting.
type ScoreSummary struct {
	Score              int    `json:"score"`
	MaxScore           int    `json:"max_score"`
	Percent            int    `json:"percent"`
	Passed             bool   `json:"passed"`
	ResultText         string `json:"result_text,omitempty"`
	IncorrectQuestions []uint `json:"incorrect_questions"`
}

// GetOrCreateSitting resumes the user's incomplete sitting for the quiz
// or creates a fresh one. For single-attempt quizzes a prior completed
// sitting blocks any new attempt; blocked is a normal outcome, not an
// error.
func (s *SittingService) GetOrCreateSitting(userID uint, quiz *models.Quiz) (sitting *models.Sitting, blocked bool, err error) {
	if quiz.SingleAttempt {
		var completed int64
		err = s.db.Model(&models.Sitting{}).
			Where("user_id = ? AND quiz_id = ? AND complete = ?", userID, quiz.ID, true).
			Count(&completed).Error
		if err != nil {
			return nil, false, err
		}
		if completed > 0 {
			return nil, true, nil
		}
	}

	var existing models.Sitting
	err = s.db.Where("user_id = ? AND quiz_id = ? AND complete = ?", userID, quiz.ID, false).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	sitting, err = s.CreateSitting(userID, quiz)
	return sitting, false, err
}

// CreateSitting snapshots the quiz's question set into a new sitting.
// The snapshot is shuffled when the quiz wants random order and then
// truncated to max_questions, so the truncation is random too.
func (s *SittingService) CreateSitting(userID uint, quiz *models.Quiz) (*models.Sitting, error) {
	var questions []models.Question
	err := s.db.Select("questions.*").
		Joins("JOIN quiz_questions ON quiz_questions.question_id = questions.id").
		Where("quiz_questions.quiz_id = ?", quiz.ID).
		Order("questions.category_id").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(questions))
	for _, question := range questions {
		ids = append(ids, question.ID)
	}

	if quiz.RandomOrder {
		rand.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}

	if quiz.MaxQuestions > 0 && uint(len(ids)) > quiz.MaxQuestions {
		ids = ids[:quiz.MaxQuestions]
	}

	if len(ids) == 0 {
		return nil, models.ErrQuizNoQuestions
	}

	order := models.EncodeQuestionIDs(ids)
	sitting := models.Sitting{
		UserID:        userID,
		QuizID:        quiz.ID,
		QuestionOrder: order,
		QuestionQueue: order,
		UserAnswers:   []byte("{}"),
		Start:         time.Now(),
	}

	if err := s.db.Create(&sitting).Error; err != nil {
		return nil, err
	}

	s.cacheState(&sitting)
	return &sitting, nil
}

// NextQuestion peeks the head of the remaining queue. A nil question
// means the sitting is exhausted and ready to finalize.
func (s *SittingService) NextQuestion(sitting *models.Sitting) (*models.Question, error) {
	id, ok := sitting.FirstQuestionID()
	if !ok {
		return nil, nil
	}

	var question models.Question
	err := s.db.Preload("Category").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order")
		}).
		First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// SubmitAnswer checks the guess against the question's rule, records it
// in the answer map, dequeues the question and adjusts the score. The
// sitting row is persisted before returning so a crash leaves it
// resumable.
func (s *SittingService) SubmitAnswer(sitting *models.Sitting, question *models.Question, guess string) (bool, error) {
	if sitting.Complete {
		return false, errors.New("sitting is already complete")
	}

	correct := question.CheckCorrect(guess)

	if err := sitting.RecordAnswer(question.ID, guess); err != nil {
		return false, err
	}
	sitting.RemoveQuestion(question.ID)

	if correct {
		sitting.AddToScore(1)
	} else {
		sitting.AddIncorrect(question.ID)
	}

	if err := s.db.Save(sitting).Error; err != nil {
		return false, err
	}

	s.cacheState(sitting)
	return correct, nil
}

// Finalize marks the sitting complete, stamps the end time and computes
// the result. Non-exam-paper sittings are discarded afterwards unless
// the retention policy keeps them.
func (s *SittingService) Finalize(sitting *models.Sitting, quiz *models.Quiz) (*ScoreSummary, error) {
	if !sitting.Complete {
		now := time.Now()
		sitting.Complete = true
		sitting.End = &now
		if err := s.db.Save(sitting).Error; err != nil {
			return nil, err
		}
	}

	summary := &ScoreSummary{
		Score:              sitting.CurrentScore,
		MaxScore:           sitting.MaxScore(),
		Percent:            sitting.PercentCorrect(),
		IncorrectQuestions: sitting.IncorrectIDs(),
	}
	summary.Passed = summary.Percent >= quiz.PassMark
	if summary.Passed {
		summary.ResultText = quiz.SuccessText
	} else {
		summary.ResultText = quiz.FailText
	}

	if !quiz.ExamPaper && !s.retainSittings {
		if err := s.db.Delete(&models.Sitting{}, sitting.ID).Error; err != nil {
			log.Printf("Failed to discard finished sitting %d: %v", sitting.ID, err)
		}
	}

	s.dropState(sitting.UserID, sitting.QuizID)
	return summary, nil
}

// GetSitting loads a sitting with its quiz and user.
func (s *SittingService) GetSitting(id uint) (*models.Sitting, error) {
	var sitting models.Sitting
	err := s.db.Preload("Quiz").Preload("User").First(&sitting, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &sitting, nil
}

// ListCompletedSittings returns completed sittings for marking, with
// optional case-insensitive quiz-title and username filters.
func (s *SittingService) ListCompletedSittings(quizFilter, userFilter string) ([]models.Sitting, error) {
	query := s.db.Model(&models.Sitting{}).
		Select("sittings.*").
		Joins("JOIN quizzes ON quizzes.id = sittings.quiz_id").
		Joins("JOIN users ON users.id = sittings.user_id").
		Where("sittings.complete = ?", true)

	if quizFilter != "" {
		query = query.Where("quizzes.title ILIKE ?", "%"+quizFilter+"%")
	}
	if userFilter != "" {
		query = query.Where("users.username ILIKE ?", "%"+userFilter+"%")
	}

	var sittings []models.Sitting
	err := query.Preload("Quiz").Preload("User").
		Order("sittings.created_at DESC").
		Find(&sittings).Error
	return sittings, err
}

// ToggleIncorrect is the reviewer override: it flips the question's
// membership in the incorrect list and adjusts the score to match, so
// two toggles restore the sitting exactly.
func (s *SittingService) ToggleIncorrect(sitting *models.Sitting, questionID uint) (nowIncorrect bool, err error) {
	found := false
	for _, id := range models.DecodeQuestionIDs(sitting.QuestionOrder) {
		if id == questionID {
			found = true
			break
		}
	}
	if !found {
		return false, models.ErrNotFound
	}

	nowIncorrect = sitting.ToggleIncorrect(questionID)
	if nowIncorrect {
		sitting.AddToScore(-1)
	} else {
		sitting.AddToScore(1)
	}

	if err := s.db.Save(sitting).Error; err != nil {
		return false, err
	}
	return nowIncorrect, nil
}

// SittingQuestions loads the snapshot's questions in sitting order,
// for the answers-at-end review and the marking detail page.
func (s *SittingService) SittingQuestions(sitting *models.Sitting) ([]models.Question, error) {
	ids := models.DecodeQuestionIDs(sitting.QuestionOrder)
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []models.Question
	err := s.db.Preload("Category").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order")
		}).
		Where("id IN ?", ids).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered, nil
}

// CachedState returns the Redis mirror of the user's sitting for the
// quiz, or nil when missing or Redis is unavailable.
func (s *SittingService) CachedState(userID, quizID uint) *SittingState {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(context.Background(), sittingStateKey(userID, quizID)).Result()
	if err != nil {
		return nil
	}

	var state SittingState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil
	}
	return &state
}

func (s *SittingService) cacheState(sitting *models.Sitting) {
	if s.redis == nil {
		return
	}

	answered, total := sitting.Progress()
	state := SittingState{
		SittingID: sitting.ID,
		QuizID:    sitting.QuizID,
		Answered:  answered,
		Total:     total,
		Score:     sitting.CurrentScore,
		Complete:  sitting.Complete,
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return
	}

	key := sittingStateKey(sitting.UserID, sitting.QuizID)
	if err := s.redis.Set(context.Background(), key, raw, 24*time.Hour).Err(); err != nil {
		log.Printf("Failed to store sitting state in Redis: %v", err)
	}
}

func (s *SittingService) dropState(userID, quizID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), sittingStateKey(userID, quizID)).Err(); err != nil {
		log.Printf("Failed to drop sitting state from Redis: %v", err)
	}
}

func sittingStateKey(userID, quizID uint) string {
	return fmt.Sprintf("sitting:%d:%d", userID, quizID)
}
