package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Sitting is one user's attempt at one quiz. QuestionOrder is the
// immutable snapshot taken at creation; QuestionQueue is the mutable
// remainder and the single source of truth for what is still unanswered.
// Both use the comma-joined, trailing-comma id encoding of the stored
// rows ("12,7,3,").
type Sitting struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`
	QuizID uint `json:"quiz_id" gorm:"not null;index"`

	QuestionOrder      string         `json:"question_order" gorm:"size:1024;not null"`
	QuestionQueue      string         `json:"question_queue" gorm:"size:1024;not null"`
	IncorrectQuestions string         `json:"incorrect_questions" gorm:"size:1024"`
	CurrentScore       int            `json:"current_score" gorm:"not null;default:0"`
	Complete           bool           `json:"complete" gorm:"not null;default:false;index"`
	UserAnswers        datatypes.JSON `json:"user_answers" gorm:"not null;default:'{}'"`

	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `json:"user,omitempty"`
	Quiz Quiz `json:"quiz,omitempty"`
}

// EncodeQuestionIDs renders ids in the stored string form: every id
// followed by a comma, including the last one. Empty input encodes to "".
func EncodeQuestionIDs(ids []uint) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.FormatUint(uint64(id), 10))
		b.WriteByte(',')
	}
	return b.String()
}

// DecodeQuestionIDs parses the stored form back into ids, skipping the
// empty segment left by the trailing comma.
func DecodeQuestionIDs(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// FirstQuestionID peeks the head of the remaining queue.
func (s *Sitting) FirstQuestionID() (uint, bool) {
	ids := DecodeQuestionIDs(s.QuestionQueue)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// RemoveQuestion drops the first occurrence of id from the remaining
// queue, preserving the trailing-comma encoding.
func (s *Sitting) RemoveQuestion(id uint) {
	ids := DecodeQuestionIDs(s.QuestionQueue)
	for i, candidate := range ids {
		if candidate == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	s.QuestionQueue = EncodeQuestionIDs(ids)
}

// RecordAnswer stores the guess in the JSON answer map keyed by the
// string question id, overwriting any prior entry for that id.
func (s *Sitting) RecordAnswer(questionID uint, guess string) error {
	answers, err := s.AnswerMap()
	if err != nil {
		return err
	}
	answers[strconv.FormatUint(uint64(questionID), 10)] = guess
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	s.UserAnswers = datatypes.JSON(raw)
	return nil
}

// AnswerMap decodes the stored answer map. An empty column decodes to an
// empty map.
func (s *Sitting) AnswerMap() (map[string]string, error) {
	answers := map[string]string{}
	if len(s.UserAnswers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(s.UserAnswers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// IncorrectIDs returns the ids the user got wrong, in recorded order.
func (s *Sitting) IncorrectIDs() []uint {
	return DecodeQuestionIDs(s.IncorrectQuestions)
}

// AddIncorrect records a wrong answer. The list is kept duplicate-free:
// adding an id already present is a no-op.
func (s *Sitting) AddIncorrect(id uint) {
	for _, existing := range s.IncorrectIDs() {
		if existing == id {
			return
		}
	}
	if s.IncorrectQuestions != "" {
		s.IncorrectQuestions += ","
	}
	s.IncorrectQuestions += strconv.FormatUint(uint64(id), 10)
}

// RemoveIncorrect takes an id out of the incorrect list.
func (s *Sitting) RemoveIncorrect(id uint) {
	ids := s.IncorrectIDs()
	kept := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, strconv.FormatUint(uint64(existing), 10))
		}
	}
	s.IncorrectQuestions = strings.Join(kept, ",")
}

// ToggleIncorrect flips membership of id in the incorrect list and
// reports whether the question is now marked incorrect. Two toggles of
// the same id always restore the original list.
func (s *Sitting) ToggleIncorrect(id uint) bool {
	for _, existing := range s.IncorrectIDs() {
		if existing == id {
			s.RemoveIncorrect(id)
			return false
		}
	}
	s.AddIncorrect(id)
	return true
}

func (s *Sitting) AddToScore(points int) {
	s.CurrentScore += points
}

// Progress reports answered and total question counts for the sitting.
func (s *Sitting) Progress() (answered, total int) {
	answers, err := s.AnswerMap()
	if err == nil {
		answered = len(answers)
	}
	total = len(DecodeQuestionIDs(s.QuestionOrder))
	return answered, total
}

// MaxScore is the size of the original question snapshot.
func (s *Sitting) MaxScore() int {
	return len(DecodeQuestionIDs(s.QuestionOrder))
}

// PercentCorrect rounds score/total to a whole percentage, 0 when the
// sitting has no questions.
func (s *Sitting) PercentCorrect() int {
	return ScorePercent(s.CurrentScore, s.MaxScore())
}

// ScorePercent is the shared rounding rule for percentages.
func ScorePercent(score, possible int) int {
	if possible <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(possible) * 100))
}
