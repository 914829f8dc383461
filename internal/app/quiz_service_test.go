package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/altazietsman/lexi-meter/internal/app"
	"github.com/altazietsman/lexi-meter/internal/domain"
)

func newTestService(t *testing.T) (*app.QuizService, *testEnv) {
	t.Helper()
	env := newTestEnv(t, app.CoordinatorOptions{})
	svc := app.NewQuizService(env.store, env.quizzes, env.coord, nil)
	return svc, env
}

func TestCreateQuizValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		draft domain.QuizDraft
	}{
		{"missing title", domain.QuizDraft{
			Questions: []domain.QuestionDraft{{Text: "Q", Options: []string{"A", "B"}}},
		}},
		{"no questions", domain.QuizDraft{Title: "T"}},
		{"question without text", domain.QuizDraft{
			Title:     "T",
			Questions: []domain.QuestionDraft{{Options: []string{"A", "B"}}},
		}},
		{"too few options", domain.QuizDraft{
			Title:     "T",
			Questions: []domain.QuestionDraft{{Text: "Q", Options: []string{"A"}}},
		}},
		{"too many options", domain.QuizDraft{
			Title:     "T",
			Questions: []domain.QuestionDraft{{Text: "Q", Options: []string{"1", "2", "3", "4", "5", "6"}}},
		}},
		{"empty option text", domain.QuizDraft{
			Title:     "T",
			Questions: []domain.QuestionDraft{{Text: "Q", Options: []string{"A", ""}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateQuiz(ctx, tc.draft)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateAndListQuizzes(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateQuiz(ctx, domain.QuizDraft{
		Title:     "Team lunch",
		UserID:    "organizer-1",
		Questions: []domain.QuestionDraft{{Text: "Where to?", Options: []string{"Sushi", "Pizza", "Tacos"}}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	summaries, err := svc.ListQuizzes(ctx)
	require.NoError(t, err)
	// The env fixture already created one quiz.
	require.Len(t, summaries, 2)
	titles := map[string]bool{}
	for _, s := range summaries {
		titles[s.Title] = true
	}
	require.True(t, titles["Team lunch"])
	require.True(t, titles[env.quiz.Title])
}

func TestGetQuizDetailCountsAndParticipants(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	q := env.question(0)

	_, err := svc.SubmitAnswers(ctx, env.quiz.ID, "Alice",
		[]domain.AnswerSubmission{{QuestionID: q.ID, OptionID: q.Options[0].ID}})
	require.NoError(t, err)
	_, err = svc.SubmitAnswers(ctx, env.quiz.ID, "Bob",
		[]domain.AnswerSubmission{{QuestionID: q.ID, OptionID: q.Options[0].ID}})
	require.NoError(t, err)

	detail, err := svc.GetQuizDetail(ctx, env.quiz.ID)
	require.NoError(t, err)
	require.Equal(t, env.quiz.ID, detail.ID)

	opt := detail.Questions[0].Options[0]
	require.Equal(t, 2, opt.VoteCount)
	names := []string{opt.Participants[0].Name, opt.Participants[1].Name}
	require.ElementsMatch(t, []string{"Alice", "Bob"}, names)
	require.Zero(t, detail.Questions[0].Options[1].VoteCount)
}

func TestGetQuizDetailUnknownQuiz(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetQuizDetail(context.Background(), "no-such-quiz")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestSubmitAnswersValidatesUpfront(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	q1, q2 := env.question(0), env.question(1)

	// The second answer pairs q2's option with q1, so nothing may be applied.
	_, err := svc.SubmitAnswers(ctx, env.quiz.ID, "Alice", []domain.AnswerSubmission{
		{QuestionID: q1.ID, OptionID: q1.Options[0].ID},
		{QuestionID: q1.ID, OptionID: q2.Options[0].ID},
	})
	require.ErrorIs(t, err, domain.ErrInvalidOption)

	answers, err := env.store.ListAnswers(ctx, env.quiz.ID)
	require.NoError(t, err)
	require.Empty(t, answers)
}

func TestSubmitAnswersRequiresNameAndAnswers(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	q := env.question(0)

	_, err := svc.SubmitAnswers(ctx, env.quiz.ID, "",
		[]domain.AnswerSubmission{{QuestionID: q.ID, OptionID: q.Options[0].ID}})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.SubmitAnswers(ctx, env.quiz.ID, "Alice", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubmitAnswersSameNameIsSameParticipant(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()
	q := env.question(0)

	_, err := svc.SubmitAnswers(ctx, env.quiz.ID, "Alice",
		[]domain.AnswerSubmission{{QuestionID: q.ID, OptionID: q.Options[0].ID}})
	require.NoError(t, err)

	// A second submission under the same name hits the one-answer rule.
	_, err = svc.SubmitAnswers(ctx, env.quiz.ID, "Alice",
		[]domain.AnswerSubmission{{QuestionID: q.ID, OptionID: q.Options[1].ID}})
	require.ErrorIs(t, err, domain.ErrDuplicateAnswer)
}

func TestDeleteQuizTearsDownSession(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	ch, err := env.coord.Join(ctx, env.quiz.ID, env.participant(t, "Alice"))
	require.NoError(t, err)
	require.Equal(t, domain.EventSnapshot, recvEvent(t, ch).Type)

	require.NoError(t, svc.DeleteQuiz(ctx, env.quiz.ID))

	require.Equal(t, domain.EventQuizClosed, recvEvent(t, ch).Type)
	requireClosed(t, ch)

	// The quiz is gone, so the session cannot come back.
	_, err = env.coord.Join(ctx, env.quiz.ID, env.participant(t, "Bob"))
	require.ErrorIs(t, err, domain.ErrQuizNotFound)

	require.ErrorIs(t, svc.DeleteQuiz(ctx, env.quiz.ID), domain.ErrQuizNotFound)
}
