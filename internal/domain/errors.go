package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz is absent from the answer store.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound is returned when a participant cannot be resolved.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrInvalidOption indicates the option does not belong to the stated question.
	ErrInvalidOption = errors.New("option does not belong to question")
	// ErrValidation indicates a structurally invalid creation or submission request.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateAnswer is returned when a participant answers a question twice.
	ErrDuplicateAnswer = errors.New("question already answered by participant")
	// ErrAlreadyJoined is returned on a second join from the same connection.
	ErrAlreadyJoined = errors.New("connection already joined")
	// ErrSessionClosed is returned when joining or submitting to a torn-down session.
	ErrSessionClosed = errors.New("quiz session closed")
)
