package models

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeQuestionIDs(t *testing.T) {
	ids := []uint{12, 7, 3}

	encoded := EncodeQuestionIDs(ids)
	if encoded != "12,7,3," {
		t.Fatalf("encoded = %q, want %q", encoded, "12,7,3,")
	}

	decoded := DecodeQuestionIDs(encoded)
	if !reflect.DeepEqual(decoded, ids) {
		t.Fatalf("round trip = %v, want %v", decoded, ids)
	}

	if got := EncodeQuestionIDs(nil); got != "" {
		t.Fatalf("empty encode = %q, want empty string", got)
	}
	if got := DecodeQuestionIDs(""); got != nil {
		t.Fatalf("empty decode = %v, want nil", got)
	}
}

func TestRemoveQuestionKeepsEncoding(t *testing.T) {
	s := Sitting{QuestionQueue: "1,2,3,"}

	s.RemoveQuestion(1)
	if s.QuestionQueue != "2,3," {
		t.Fatalf("queue = %q, want %q", s.QuestionQueue, "2,3,")
	}

	s.RemoveQuestion(3)
	if s.QuestionQueue != "2," {
		t.Fatalf("queue = %q, want %q", s.QuestionQueue, "2,")
	}

	s.RemoveQuestion(2)
	if s.QuestionQueue != "" {
		t.Fatalf("queue = %q, want empty", s.QuestionQueue)
	}

	if _, ok := s.FirstQuestionID(); ok {
		t.Fatal("expected exhausted queue")
	}
}

func TestFirstQuestionID(t *testing.T) {
	s := Sitting{QuestionQueue: "42,7,"}

	id, ok := s.FirstQuestionID()
	if !ok || id != 42 {
		t.Fatalf("head = %d/%v, want 42/true", id, ok)
	}
}

func TestRecordAnswer(t *testing.T) {
	s := Sitting{UserAnswers: []byte("{}")}

	if err := s.RecordAnswer(5, "17"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := s.RecordAnswer(9, "true"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	// Resubmitting overwrites the prior entry
	if err := s.RecordAnswer(5, "18"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	answers, err := s.AnswerMap()
	if err != nil {
		t.Fatalf("AnswerMap: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("answer count = %d, want 2", len(answers))
	}
	if answers["5"] != "18" {
		t.Fatalf(`answers["5"] = %q, want "18"`, answers["5"])
	}
	if answers["9"] != "true" {
		t.Fatalf(`answers["9"] = %q, want "true"`, answers["9"])
	}
}

func TestIncorrectListIsASet(t *testing.T) {
	var s Sitting

	s.AddIncorrect(4)
	s.AddIncorrect(8)
	s.AddIncorrect(4)

	if s.IncorrectQuestions != "4,8" {
		t.Fatalf("incorrect = %q, want %q", s.IncorrectQuestions, "4,8")
	}

	s.RemoveIncorrect(4)
	if s.IncorrectQuestions != "8" {
		t.Fatalf("incorrect = %q, want %q", s.IncorrectQuestions, "8")
	}
}

func TestToggleIncorrectIsItsOwnInverse(t *testing.T) {
	s := Sitting{IncorrectQuestions: "3,9"}

	if now := s.ToggleIncorrect(5); !now {
		t.Fatal("first toggle should mark incorrect")
	}
	if now := s.ToggleIncorrect(5); now {
		t.Fatal("second toggle should mark correct again")
	}
	if s.IncorrectQuestions != "3,9" {
		t.Fatalf("incorrect = %q, want original %q", s.IncorrectQuestions, "3,9")
	}

	// Toggling an existing member out and back preserves membership
	s.ToggleIncorrect(3)
	s.ToggleIncorrect(3)
	ids := s.IncorrectIDs()
	want := map[uint]bool{3: true, 9: true}
	if len(ids) != 2 || !want[ids[0]] || !want[ids[1]] {
		t.Fatalf("incorrect ids = %v, want {3 9}", ids)
	}
}

func TestProgressCounts(t *testing.T) {
	s := Sitting{
		QuestionOrder: "1,2,3,",
		QuestionQueue: "3,",
		UserAnswers:   []byte(`{"1":"a","2":"b"}`),
	}

	answered, total := s.Progress()
	if answered != 2 || total != 3 {
		t.Fatalf("progress = %d/%d, want 2/3", answered, total)
	}
}

func TestPercentCorrect(t *testing.T) {
	s := Sitting{QuestionOrder: "1,2,3,", CurrentScore: 2}
	if got := s.PercentCorrect(); got != 67 {
		t.Fatalf("percent = %d, want 67", got)
	}

	full := Sitting{QuestionOrder: "1,2,3,", CurrentScore: 3}
	if got := full.PercentCorrect(); got != 100 {
		t.Fatalf("percent = %d, want 100", got)
	}

	empty := Sitting{}
	if got := empty.PercentCorrect(); got != 0 {
		t.Fatalf("percent of empty sitting = %d, want 0", got)
	}
}
