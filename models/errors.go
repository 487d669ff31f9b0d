package models

import "errors"

var (
	// ErrNotFound covers lookups of sittings, questions, quizzes and
	// categories that do not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied is returned when a non-staff user touches a
	// draft quiz or a marking operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrQuizNoQuestions is returned when a sitting is created for a quiz
	// whose question set resolves to nothing.
	ErrQuizNoQuestions = errors.New("quiz has no questions configured")

	// ErrPassMarkTooHigh rejects saving a quiz with a pass mark above 100.
	ErrPassMarkTooHigh = errors.New("pass mark cannot exceed 100")
)
