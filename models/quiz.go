package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	CategoryID  *uint  `json:"category_id"`

	RandomOrder   bool `json:"random_order" gorm:"not null;default:false"`
	AnswersAtEnd  bool `json:"answers_at_end" gorm:"not null;default:false"`
	ExamPaper     bool `json:"exam_paper" gorm:"not null;default:false"`
	SingleAttempt bool `json:"single_attempt" gorm:"not null;default:false"`
	Draft         bool `json:"draft" gorm:"not null;default:false"`

	// MaxQuestions caps the sitting snapshot; 0 means no cap.
	MaxQuestions uint `json:"max_questions" gorm:"not null;default:0"`
	// PassMark is the minimum percent considered a pass, display only.
	PassMark    int    `json:"pass_mark" gorm:"not null;default:0"`
	SuccessText string `json:"success_text"`
	FailText    string `json:"fail_text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Category  *Category  `json:"category,omitempty"`
	Questions []Question `json:"questions,omitempty" gorm:"many2many:quiz_questions;"`
}

// NormalizeSlug lowercases, turns whitespace runs into dashes and strips
// everything that is not alphanumeric or a dash.
func NormalizeSlug(slug string) string {
	slug = strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(slug), "-"))
	var b strings.Builder
	for _, ch := range slug {
		if ch == '-' || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// BeforeSave keeps the catalog invariants: the slug is always normalized,
// a single-attempt quiz is always an exam paper, and the pass mark is
// bounded by 100.
func (q *Quiz) BeforeSave(tx *gorm.DB) error {
	q.Slug = NormalizeSlug(q.Slug)
	if q.SingleAttempt {
		q.ExamPaper = true
	}
	if q.PassMark > 100 {
		return ErrPassMarkTooHigh
	}
	return nil
}

// MaxScore is one point per question in the quiz.
func (q *Quiz) MaxScore() int {
	return len(q.Questions)
}
