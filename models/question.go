package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// QuestionType tags the question variant. The variants replace runtime
// subclassing: correctness checking dispatches on the tag.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionTrueFalse    QuestionType = "true_false"
	QuestionEssay        QuestionType = "essay"
)

func (t QuestionType) String() string { return string(t) }

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionTrueFalse, QuestionEssay:
		return true
	default:
		return false
	}
}

type Question struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Type        QuestionType `json:"type" gorm:"not null;default:'single_choice'"`
	CategoryID  *uint        `json:"category_id"`
	Content     string       `json:"content" gorm:"not null"`
	Explanation string       `json:"explanation"`
	Figure      string       `json:"figure"`
	// CorrectAnswer holds the expected value for true_false questions.
	CorrectAnswer bool `json:"correct_answer" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Category *Category `json:"category,omitempty"`
	Quizzes  []Quiz    `json:"quizzes,omitempty" gorm:"many2many:quiz_questions;"`
	Answers  []Answer  `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
}

// CheckCorrect evaluates a submitted guess against the question's rule.
// Single choice expects the id of the correct answer row, true/false
// expects "true" or "false". Essay questions are never auto-correct;
// a reviewer flips them through the marking toggle.
func (q *Question) CheckCorrect(guess string) bool {
	switch q.Type {
	case QuestionSingleChoice:
		for _, a := range q.Answers {
			if a.Correct {
				return strconv.FormatUint(uint64(a.ID), 10) == strings.TrimSpace(guess)
			}
		}
		return false
	case QuestionTrueFalse:
		want := "false"
		if q.CorrectAnswer {
			want = "true"
		}
		return strings.EqualFold(strings.TrimSpace(guess), want)
	default:
		return false
	}
}

// AnswerOption is the display form of an answer choice. The correct flag
// is only populated when the caller asked for it, so an active sitting
// never leaks the right answer.
type AnswerOption struct {
	ID      uint   `json:"id,omitempty"`
	Content string `json:"content"`
	Correct *bool  `json:"correct,omitempty"`
}

// AnswersForDisplay returns the ordered answer choices. True/false
// questions synthesize their two fixed choices.
func (q *Question) AnswersForDisplay(withCorrect bool) []AnswerOption {
	switch q.Type {
	case QuestionTrueFalse:
		options := []AnswerOption{{Content: "true"}, {Content: "false"}}
		if withCorrect {
			t := q.CorrectAnswer
			f := !q.CorrectAnswer
			options[0].Correct = &t
			options[1].Correct = &f
		}
		return options
	case QuestionSingleChoice:
		options := make([]AnswerOption, 0, len(q.Answers))
		for _, a := range q.Answers {
			option := AnswerOption{ID: a.ID, Content: a.Content}
			if withCorrect {
				c := a.Correct
				option.Correct = &c
			}
			options = append(options, option)
		}
		return options
	default:
		return nil
	}
}
