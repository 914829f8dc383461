package app

import (
	"testing"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

func numberQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:     "q1",
				QuizID: "quiz-1",
				Text:   "Pick a number",
				Options: []domain.Option{
					{ID: "optA", QuestionID: "q1", Text: "One"},
					{ID: "optB", QuestionID: "q1", Text: "Two"},
				},
			},
			{
				ID:     "q2",
				QuizID: "quiz-1",
				Text:   "Pick a color",
				Options: []domain.Option{
					{ID: "optC", QuestionID: "q2", Text: "Red"},
					{ID: "optD", QuestionID: "q2", Text: "Blue"},
				},
			},
		},
	}
}

func TestTallyCountsAnswers(t *testing.T) {
	tally := newTally(numberQuiz(), nil)

	counts, err := tally.apply("p1", "q1", "optA")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if counts["optA"] != 1 || counts["optB"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}

	if _, err := tally.apply("p2", "q1", "optB"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	counts, err = tally.apply("p3", "q1", "optA")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if counts["optA"] != 2 || counts["optB"] != 1 {
		t.Fatalf("expected A=2 B=1, got %v", counts)
	}
}

func TestTallyRejectsDuplicate(t *testing.T) {
	tally := newTally(numberQuiz(), nil)

	if _, err := tally.apply("p1", "q1", "optA"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := tally.apply("p1", "q1", "optB"); err != domain.ErrDuplicateAnswer {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := tally.questionCounts("q1"); got["optA"] != 1 || got["optB"] != 0 {
		t.Fatalf("duplicate changed counts: %v", got)
	}

	// Same participant may still answer a different question.
	if _, err := tally.apply("p1", "q2", "optC"); err != nil {
		t.Fatalf("apply other question: %v", err)
	}
}

func TestTallyValidatesStructure(t *testing.T) {
	tally := newTally(numberQuiz(), nil)

	if _, err := tally.apply("p1", "missing", "optA"); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question error, got %v", err)
	}
	// optC belongs to q2, not q1.
	if _, err := tally.apply("p1", "q1", "optC"); err != domain.ErrInvalidOption {
		t.Fatalf("expected option error, got %v", err)
	}
}

func TestTallyReplaysPersistedAnswers(t *testing.T) {
	answers := []domain.Answer{
		{ParticipantID: "p1", QuestionID: "q1", OptionID: "optA"},
		{ParticipantID: "p2", QuestionID: "q1", OptionID: "optA"},
		{ParticipantID: "p1", QuestionID: "q2", OptionID: "optD"},
	}
	tally := newTally(numberQuiz(), answers)

	snap := tally.snapshot()
	if len(snap.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(snap.Questions))
	}
	if got := snap.Questions[0].OptionCounts; got["optA"] != 2 || got["optB"] != 0 {
		t.Fatalf("unexpected q1 counts %v", got)
	}
	if got := snap.Questions[1].OptionCounts; got["optD"] != 1 {
		t.Fatalf("unexpected q2 counts %v", got)
	}
}

func TestTallySumEqualsDistinctParticipants(t *testing.T) {
	tally := newTally(numberQuiz(), nil)

	participants := []string{"p1", "p2", "p3", "p4", "p5"}
	options := []string{"optA", "optB", "optA", "optA", "optB"}
	for i, p := range participants {
		if _, err := tally.apply(p, "q1", options[i]); err != nil {
			t.Fatalf("apply %s: %v", p, err)
		}
	}
	// Duplicate attempts must not skew the sum.
	_, _ = tally.apply("p1", "q1", "optB")
	_, _ = tally.apply("p3", "q1", "optA")

	counts := tally.questionCounts("q1")
	if counts["optA"]+counts["optB"] != len(participants) {
		t.Fatalf("count sum %d != distinct participants %d", counts["optA"]+counts["optB"], len(participants))
	}
}
