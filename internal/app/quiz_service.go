package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

const (
	minOptionsPerQuestion = 2
	maxOptionsPerQuestion = 5
)

// QuizService carries the organizer-facing use cases: quiz CRUD and answer
// submission over the REST surface. Live submissions are routed through the
// coordinator so active sessions observe them.
type QuizService struct {
	store   AnswerStore
	quizzes QuizRepository
	coord   *Coordinator
	log     *zap.Logger
}

func NewQuizService(store AnswerStore, quizzes QuizRepository, coord *Coordinator, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{store: store, quizzes: quizzes, coord: coord, log: log}
}

// CreateQuiz validates and persists a new quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, draft domain.QuizDraft) (string, error) {
	if err := validateDraft(draft); err != nil {
		return "", err
	}
	id, err := s.store.CreateQuiz(ctx, draft)
	if err != nil {
		return "", err
	}
	s.log.Info("quiz created", zap.String("quizId", id), zap.String("userId", draft.UserID))
	return id, nil
}

func validateDraft(draft domain.QuizDraft) error {
	if draft.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(draft.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", domain.ErrValidation)
	}
	for i, q := range draft.Questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", domain.ErrValidation, i+1)
		}
		if len(q.Options) < minOptionsPerQuestion || len(q.Options) > maxOptionsPerQuestion {
			return fmt.Errorf("%w: question %d must have between %d and %d options",
				domain.ErrValidation, i+1, minOptionsPerQuestion, maxOptionsPerQuestion)
		}
		for _, opt := range q.Options {
			if opt == "" {
				return fmt.Errorf("%w: question %d has an empty option", domain.ErrValidation, i+1)
			}
		}
	}
	return nil
}

// ListQuizzes returns the id/title listing of all quizzes.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.store.ListQuizzes(ctx)
}

// GetQuizDetail returns a quiz's structure together with current vote counts
// and the participants behind each option, derived from the store.
func (s *QuizService) GetQuizDetail(ctx context.Context, quizID string) (domain.QuizDetail, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizDetail{}, err
	}
	answers, err := s.store.ListAnswers(ctx, quizID)
	if err != nil {
		return domain.QuizDetail{}, err
	}

	voters := make(map[string][]domain.Participant)
	for _, a := range answers {
		voters[a.OptionID] = append(voters[a.OptionID], domain.Participant{ID: a.ParticipantID, Name: a.ParticipantName})
	}

	detail := domain.QuizDetail{ID: quiz.ID, Title: quiz.Title}
	for _, q := range quiz.Questions {
		qd := domain.QuestionDetail{ID: q.ID, Text: q.Text}
		for _, opt := range q.Options {
			qd.Options = append(qd.Options, domain.OptionDetail{
				ID:           opt.ID,
				Text:         opt.Text,
				VoteCount:    len(voters[opt.ID]),
				Participants: voters[opt.ID],
			})
		}
		detail.Questions = append(detail.Questions, qd)
	}
	return detail, nil
}

// DeleteQuiz removes the quiz and everything under it, then tears down any
// active session so nothing is broadcast for the quiz afterwards.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, quizID)
	s.coord.EndSession(quizID)
	s.log.Info("quiz deleted", zap.String("quizId", quizID))
	return nil
}

// SubmitAnswers resolves the participant by name once and routes each answer
// through the coordinator. All answers are validated against the quiz
// structure before any is applied.
func (s *QuizService) SubmitAnswers(ctx context.Context, quizID, participantName string, answers []domain.AnswerSubmission) ([]domain.Update, error) {
	if participantName == "" {
		return nil, fmt.Errorf("%w: participant name is required", domain.ErrValidation)
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers submitted", domain.ErrValidation)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := validateSubmissions(quiz, answers); err != nil {
		return nil, err
	}

	participant, err := s.store.ResolveParticipant(ctx, participantName)
	if err != nil {
		return nil, err
	}

	updates := make([]domain.Update, 0, len(answers))
	for _, a := range answers {
		update, err := s.coord.Submit(ctx, quizID, participant.ID, a.QuestionID, a.OptionID)
		if err != nil {
			return updates, err
		}
		updates = append(updates, update)
	}
	return updates, nil
}

func validateSubmissions(quiz domain.Quiz, answers []domain.AnswerSubmission) error {
	options := make(map[string]string, len(quiz.Questions)*3)
	questions := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = struct{}{}
		for _, opt := range q.Options {
			options[opt.ID] = q.ID
		}
	}
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return domain.ErrQuestionNotFound
		}
		if options[a.OptionID] != a.QuestionID {
			return domain.ErrInvalidOption
		}
	}
	return nil
}
