package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"quizhub/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The sitting flow needs a real database. Set QUIZHUB_TEST_DSN to a
// postgres DSN to run these, e.g.
// "host=localhost user=quizhub password=quizhub123 dbname=quizhub_test port=5432 sslmode=disable".
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("QUIZHUB_TEST_DSN")
	if dsn == "" {
		t.Skip("set QUIZHUB_TEST_DSN to run database integration tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Quiz{},
		&models.Question{},
		&models.Answer{},
		&models.Sitting{},
		&models.Progress{},
		&models.CSVUpload{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, suffix int64) *models.User {
	t.Helper()

	user := models.User{
		Username:     fmt.Sprintf("itest_user_%d", suffix),
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedQuiz(t *testing.T, catalog *CatalogService, suffix int64, mutate func(*CreateQuizRequest)) *models.Quiz {
	t.Helper()

	category := fmt.Sprintf("itest-cat-%d", suffix)
	req := &CreateQuizRequest{
		Title:    fmt.Sprintf("ITest Quiz %d", suffix),
		Slug:     fmt.Sprintf("itest-quiz-%d", suffix),
		Category: category,
		PassMark: 50,
		Questions: []CreateQuestionRequest{
			{
				Type:     "single_choice",
				Category: category,
				Content:  "2 + 2?",
				Answers: []CreateAnswerRequest{
					{Content: "4", Correct: true, Order: 0},
					{Content: "5", Order: 1},
				},
			},
			{
				Type:          "true_false",
				Category:      category,
				Content:       "The sky is blue.",
				CorrectAnswer: true,
			},
			{
				Type:     "single_choice",
				Category: category,
				Content:  "3 x 3?",
				Answers: []CreateAnswerRequest{
					{Content: "9", Correct: true, Order: 0},
					{Content: "6", Order: 1},
				},
			},
		},
	}
	if mutate != nil {
		mutate(req)
	}

	quiz, err := catalog.CreateQuiz(req)
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

// correctGuess answers a question with its correct value.
func correctGuess(q *models.Question) string {
	if q.Type == models.QuestionTrueFalse {
		if q.CorrectAnswer {
			return "true"
		}
		return "false"
	}
	for _, a := range q.Answers {
		if a.Correct {
			return strconv.FormatUint(uint64(a.ID), 10)
		}
	}
	return ""
}

func TestSittingLifecycle_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	catalog := NewCatalogService(db)
	sittings := NewSittingService(db, nil, true)
	progress := NewProgressService(db)

	suffix := time.Now().UnixNano()
	user := seedUser(t, db, suffix)
	quiz := seedQuiz(t, catalog, suffix, nil)

	sitting, blocked, err := sittings.GetOrCreateSitting(user.ID, quiz)
	if err != nil {
		t.Fatalf("GetOrCreateSitting: %v", err)
	}
	if blocked {
		t.Fatal("fresh quiz should not block")
	}
	if sitting.QuestionOrder != sitting.QuestionQueue {
		t.Fatalf("order %q and queue %q must match at creation", sitting.QuestionOrder, sitting.QuestionQueue)
	}
	if got := sitting.MaxScore(); got != 3 {
		t.Fatalf("snapshot size = %d, want 3", got)
	}

	// A second call resumes the same sitting
	resumed, blocked, err := sittings.GetOrCreateSitting(user.ID, quiz)
	if err != nil || blocked {
		t.Fatalf("resume: blocked=%v err=%v", blocked, err)
	}
	if resumed.ID != sitting.ID {
		t.Fatalf("resumed sitting %d, want %d", resumed.ID, sitting.ID)
	}

	answeredWrong := false
	for {
		question, err := sittings.NextQuestion(sitting)
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if question == nil {
			break
		}

		guess := correctGuess(question)
		if !answeredWrong && question.Type == models.QuestionTrueFalse {
			guess = "false" // one deliberate miss
			answeredWrong = true
		}

		correct, err := sittings.SubmitAnswer(sitting, question, guess)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if err := progress.RecordResult(user.ID, question, correct); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}

	summary, err := sittings.Finalize(sitting, quiz)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if summary.Score != 2 || summary.MaxScore != 3 {
		t.Fatalf("summary = %d/%d, want 2/3", summary.Score, summary.MaxScore)
	}
	if summary.Percent != 67 {
		t.Fatalf("percent = %d, want 67", summary.Percent)
	}
	if !summary.Passed {
		t.Fatalf("percent %d against a pass mark of 50 should pass", summary.Percent)
	}
	if len(summary.IncorrectQuestions) != 1 {
		t.Fatalf("incorrect = %v, want exactly the missed question", summary.IncorrectQuestions)
	}

	// Lifetime progress picked up the per-category routing
	scores, err := progress.AllCategoryScores(user.ID)
	if err != nil {
		t.Fatalf("AllCategoryScores: %v", err)
	}
	category := fmt.Sprintf("itest-cat-%d", suffix)
	if got := scores[category]; got.Score != 2 || got.Possible != 3 || got.Percent != 67 {
		t.Fatalf("category score = %+v, want {2 3 67}", got)
	}
}

func TestSingleAttemptBlocksSecondSitting_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	catalog := NewCatalogService(db)
	sittings := NewSittingService(db, nil, true)

	suffix := time.Now().UnixNano()
	user := seedUser(t, db, suffix)
	quiz := seedQuiz(t, catalog, suffix, func(req *CreateQuizRequest) {
		req.SingleAttempt = true
	})
	if !quiz.ExamPaper {
		t.Fatal("single_attempt quiz must save as exam paper")
	}

	sitting, blocked, err := sittings.GetOrCreateSitting(user.ID, quiz)
	if err != nil || blocked {
		t.Fatalf("first attempt: blocked=%v err=%v", blocked, err)
	}

	for {
		question, err := sittings.NextQuestion(sitting)
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if question == nil {
			break
		}
		if _, err := sittings.SubmitAnswer(sitting, question, correctGuess(question)); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}
	summary, err := sittings.Finalize(sitting, quiz)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if summary.Percent != 100 {
		t.Fatalf("all-correct run percent = %d, want 100", summary.Percent)
	}

	_, blocked, err = sittings.GetOrCreateSitting(user.ID, quiz)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if !blocked {
		t.Fatal("second attempt at a single-attempt quiz must be blocked")
	}
}

func TestMaxQuestionsTruncatesSnapshot_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	catalog := NewCatalogService(db)
	sittings := NewSittingService(db, nil, true)

	suffix := time.Now().UnixNano()
	user := seedUser(t, db, suffix)
	quiz := seedQuiz(t, catalog, suffix, func(req *CreateQuizRequest) {
		req.MaxQuestions = 2
		req.RandomOrder = true
	})

	sitting, err := sittings.CreateSitting(user.ID, quiz)
	if err != nil {
		t.Fatalf("CreateSitting: %v", err)
	}
	if got := sitting.MaxScore(); got != 2 {
		t.Fatalf("snapshot size = %d, want max_questions cap of 2", got)
	}
}

func TestEmptyQuizFailsConfiguration_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	sittings := NewSittingService(db, nil, true)

	suffix := time.Now().UnixNano()
	user := seedUser(t, db, suffix)

	quiz := models.Quiz{Title: "Empty", Slug: fmt.Sprintf("itest-empty-%d", suffix)}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("seed empty quiz: %v", err)
	}

	_, err := sittings.CreateSitting(user.ID, &quiz)
	if !errors.Is(err, models.ErrQuizNoQuestions) {
		t.Fatalf("err = %v, want ErrQuizNoQuestions", err)
	}
}

func TestMarkingToggleAdjustsScore_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	catalog := NewCatalogService(db)
	sittings := NewSittingService(db, nil, true)

	suffix := time.Now().UnixNano()
	user := seedUser(t, db, suffix)
	quiz := seedQuiz(t, catalog, suffix, nil)

	sitting, _, err := sittings.GetOrCreateSitting(user.ID, quiz)
	if err != nil {
		t.Fatalf("GetOrCreateSitting: %v", err)
	}

	questionID, ok := sitting.FirstQuestionID()
	if !ok {
		t.Fatal("expected a queued question")
	}

	originalScore := sitting.CurrentScore
	originalList := sitting.IncorrectQuestions

	nowIncorrect, err := sittings.ToggleIncorrect(sitting, questionID)
	if err != nil {
		t.Fatalf("ToggleIncorrect: %v", err)
	}
	if !nowIncorrect {
		t.Fatal("first toggle should mark the question incorrect")
	}

	nowIncorrect, err = sittings.ToggleIncorrect(sitting, questionID)
	if err != nil {
		t.Fatalf("ToggleIncorrect: %v", err)
	}
	if nowIncorrect {
		t.Fatal("second toggle should restore the question")
	}
	if sitting.CurrentScore != originalScore || sitting.IncorrectQuestions != originalList {
		t.Fatalf("toggle pair changed state: score %d→%d, list %q→%q",
			originalScore, sitting.CurrentScore, originalList, sitting.IncorrectQuestions)
	}

	if _, err := sittings.ToggleIncorrect(sitting, 999999999); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("toggling a foreign question: err = %v, want ErrNotFound", err)
	}
}

func TestProvisionCSV_DBIntegration(t *testing.T) {
	db := openTestDB(t)
	provision := NewProvisionService(db, t.TempDir())

	suffix := time.Now().UnixNano()
	admin := seedUser(t, db, suffix)

	raw := []byte(fmt.Sprintf(
		"Username,Email,Password\ncsv_user_%d,csv%d@example.com,secret\nbadrow,only-two-fields\n",
		suffix, suffix,
	))

	upload, err := provision.SaveUpload(admin.ID, "staff import", "users.csv", raw)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	results, err := provision.ProcessUpload(upload, raw)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	if !results[0].Created || results[0].Error != "" {
		t.Fatalf("good row = %+v, want created", results[0])
	}
	if results[1].Created || results[1].Error == "" {
		t.Fatalf("bad row = %+v, want per-row error without aborting", results[1])
	}
	if !upload.Completed {
		t.Fatal("upload must be marked completed")
	}

	var created models.User
	if err := db.Where("username = ?", fmt.Sprintf("csv_user_%d", suffix)).First(&created).Error; err != nil {
		t.Fatalf("load provisioned user: %v", err)
	}
	if created.IsStaff || created.IsSuperuser {
		t.Fatal("provisioned accounts must never get staff or superuser privileges")
	}
	if !created.IsActive {
		t.Fatal("provisioned accounts should be active regular users")
	}

	// Reprocessing a completed upload is a no-op
	again, err := provision.ProcessUpload(upload, raw)
	if err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if again != nil {
		t.Fatalf("reprocess results = %v, want nil", again)
	}
}
