package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

// AnswerStore is the in-memory implementation of app.AnswerStore, used in
// tests and when no Postgres URL is configured.
type AnswerStore struct {
	clock func() time.Time

	mu             sync.RWMutex
	quizzes        map[string]domain.Quiz
	participants   map[string]domain.Participant // keyed by name
	answers        map[string][]domain.Answer    // keyed by quiz ID
	questionQuiz   map[string]string             // questionID -> quizID
	optionQuestion map[string]string             // optionID -> questionID
	answeredBy     map[string]struct{}           // participantID+"/"+questionID
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{
		clock:          time.Now,
		quizzes:        make(map[string]domain.Quiz),
		participants:   make(map[string]domain.Participant),
		answers:        make(map[string][]domain.Answer),
		questionQuiz:   make(map[string]string),
		optionQuestion: make(map[string]string),
		answeredBy:     make(map[string]struct{}),
	}
}

func (s *AnswerStore) CreateQuiz(_ context.Context, draft domain.QuizDraft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		UserID:    draft.UserID,
		CreatedAt: s.clock(),
	}
	for _, qd := range draft.Questions {
		question := domain.Question{
			ID:     uuid.NewString(),
			QuizID: quiz.ID,
			Text:   qd.Text,
		}
		for _, text := range qd.Options {
			option := domain.Option{
				ID:         uuid.NewString(),
				QuestionID: question.ID,
				Text:       text,
			}
			question.Options = append(question.Options, option)
			s.optionQuestion[option.ID] = question.ID
		}
		quiz.Questions = append(quiz.Questions, question)
		s.questionQuiz[question.ID] = quiz.ID
	}
	s.quizzes[quiz.ID] = quiz
	return quiz.ID, nil
}

func (s *AnswerStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *AnswerStore) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizSummary, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, domain.QuizSummary{ID: quiz.ID, Title: quiz.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// DeleteQuiz cascades to questions, options, and answers.
func (s *AnswerStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	for _, q := range quiz.Questions {
		delete(s.questionQuiz, q.ID)
		for _, opt := range q.Options {
			delete(s.optionQuestion, opt.ID)
		}
	}
	for _, a := range s.answers[quizID] {
		delete(s.answeredBy, answeredKey(a.ParticipantID, a.QuestionID))
	}
	delete(s.answers, quizID)
	delete(s.quizzes, quizID)
	return nil
}

// ResolveParticipant returns the participant with the given display name,
// creating one on first sight.
func (s *AnswerStore) ResolveParticipant(_ context.Context, name string) (domain.Participant, error) {
	if name == "" {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[name]; ok {
		return p, nil
	}
	p := domain.Participant{ID: uuid.NewString(), Name: name}
	s.participants[name] = p
	return p, nil
}

func (s *AnswerStore) RecordAnswer(_ context.Context, participantID, questionID, optionID string) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.optionQuestion[optionID] != questionID {
		return domain.Answer{}, domain.ErrInvalidOption
	}
	quizID, ok := s.questionQuiz[questionID]
	if !ok {
		return domain.Answer{}, domain.ErrQuestionNotFound
	}
	key := answeredKey(participantID, questionID)
	if _, ok := s.answeredBy[key]; ok {
		return domain.Answer{}, domain.ErrDuplicateAnswer
	}

	var name string
	for _, p := range s.participants {
		if p.ID == participantID {
			name = p.Name
			break
		}
	}
	if name == "" {
		return domain.Answer{}, domain.ErrParticipantNotFound
	}

	answer := domain.Answer{
		ID:              uuid.NewString(),
		QuizID:          quizID,
		QuestionID:      questionID,
		OptionID:        optionID,
		ParticipantID:   participantID,
		ParticipantName: name,
		SubmittedAt:     s.clock(),
	}
	s.answers[quizID] = append(s.answers[quizID], answer)
	s.answeredBy[key] = struct{}{}
	return answer, nil
}

func (s *AnswerStore) ListAnswers(_ context.Context, quizID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.Answer, len(s.answers[quizID]))
	copy(out, s.answers[quizID])
	return out, nil
}

func answeredKey(participantID, questionID string) string {
	return participantID + "/" + questionID
}
