package app

import (
	"github.com/altazietsman/lexi-meter/internal/domain"
)

// tally holds the running per-option vote counts and per-question
// answered-participant sets for one quiz. It is owned exclusively by the
// quiz's session goroutine and is never shared.
type tally struct {
	quizID        string
	questionOrder []string
	options       map[string][]string          // questionID -> option IDs, creation order
	optionOwner   map[string]string            // optionID -> questionID
	counts        map[string]int               // optionID -> votes
	answered      map[string]map[string]string // questionID -> participantID -> optionID
}

// newTally builds the tally from the quiz structure and replays every
// persisted answer once. Answers referencing unknown questions or options are
// skipped; they cannot occur unless the structure changed under us.
func newTally(quiz domain.Quiz, answers []domain.Answer) *tally {
	t := &tally{
		quizID:      quiz.ID,
		options:     make(map[string][]string, len(quiz.Questions)),
		optionOwner: make(map[string]string),
		counts:      make(map[string]int),
		answered:    make(map[string]map[string]string, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		t.questionOrder = append(t.questionOrder, q.ID)
		ids := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			ids = append(ids, opt.ID)
			t.optionOwner[opt.ID] = q.ID
			t.counts[opt.ID] = 0
		}
		t.options[q.ID] = ids
		t.answered[q.ID] = make(map[string]string)
	}
	for _, a := range answers {
		_, _ = t.apply(a.ParticipantID, a.QuestionID, a.OptionID)
	}
	return t
}

// validate checks that the question exists and the option belongs to it.
func (t *tally) validate(questionID, optionID string) error {
	if _, ok := t.answered[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	if t.optionOwner[optionID] != questionID {
		return domain.ErrInvalidOption
	}
	return nil
}

func (t *tally) hasAnswered(participantID, questionID string) bool {
	byParticipant, ok := t.answered[questionID]
	if !ok {
		return false
	}
	_, answered := byParticipant[participantID]
	return answered
}

// apply counts one answer and returns the new counts for the affected
// question only, bounding the size of each broadcast.
func (t *tally) apply(participantID, questionID, optionID string) (map[string]int, error) {
	if err := t.validate(questionID, optionID); err != nil {
		return nil, err
	}
	if t.hasAnswered(participantID, questionID) {
		return nil, domain.ErrDuplicateAnswer
	}
	t.answered[questionID][participantID] = optionID
	t.counts[optionID]++
	return t.questionCounts(questionID), nil
}

// questionCounts copies the option counts for one question.
func (t *tally) questionCounts(questionID string) map[string]int {
	ids := t.options[questionID]
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id] = t.counts[id]
	}
	return counts
}

// snapshot copies the full tally, zero counts included.
func (t *tally) snapshot() domain.Snapshot {
	questions := make([]domain.QuestionCounts, 0, len(t.questionOrder))
	for _, qid := range t.questionOrder {
		questions = append(questions, domain.QuestionCounts{
			QuestionID:   qid,
			OptionCounts: t.questionCounts(qid),
		})
	}
	return domain.Snapshot{QuizID: t.quizID, Questions: questions}
}
