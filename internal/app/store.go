package app

import (
	"context"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

// AnswerStore is the durable record of quizzes, questions, options,
// participants, and submitted answers (in-memory, Postgres, etc).
type AnswerStore interface {
	CreateQuiz(ctx context.Context, draft domain.QuizDraft) (string, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	ResolveParticipant(ctx context.Context, name string) (domain.Participant, error)
	RecordAnswer(ctx context.Context, participantID, questionID, optionID string) (domain.Answer, error)
	ListAnswers(ctx context.Context, quizID string) ([]domain.Answer, error)
}

// QuizRepository serves quiz structure reads (from cache/backing store).
// Invalidate drops a cached entry after the quiz is deleted.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}
