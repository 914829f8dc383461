package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

const uniqueViolation = "23505"

// AnswerStore is the Postgres implementation of app.AnswerStore.
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

func (s *AnswerStore) CreateQuiz(ctx context.Context, draft domain.QuizDraft) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin create quiz: %w", err)
	}
	defer tx.Rollback(ctx)

	quizID := uuid.NewString()
	_, err = tx.Exec(ctx,
		`INSERT INTO quizzes (id, title, user_id) VALUES ($1, $2, $3)`,
		quizID, draft.Title, draft.UserID)
	if err != nil {
		return "", fmt.Errorf("insert quiz: %w", err)
	}

	for qi, qd := range draft.Questions {
		questionID := uuid.NewString()
		_, err = tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, text, position) VALUES ($1, $2, $3, $4)`,
			questionID, quizID, qd.Text, qi)
		if err != nil {
			return "", fmt.Errorf("insert question: %w", err)
		}
		for oi, text := range qd.Options {
			_, err = tx.Exec(ctx,
				`INSERT INTO options (id, question_id, text, position) VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), questionID, text, oi)
			if err != nil {
				return "", fmt.Errorf("insert option: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit create quiz: %w", err)
	}
	return quizID, nil
}

func (s *AnswerStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, user_id, created_at FROM quizzes WHERE id = $1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.UserID, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.text, o.id, o.text
		 FROM questions q
		 JOIN options o ON o.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY q.position, o.position`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var questionID, questionText, optionID, optionText string
		if err := rows.Scan(&questionID, &questionText, &optionID, &optionText); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question row: %w", err)
		}
		i, ok := index[questionID]
		if !ok {
			i = len(quiz.Questions)
			index[questionID] = i
			quiz.Questions = append(quiz.Questions, domain.Question{
				ID:     questionID,
				QuizID: quizID,
				Text:   questionText,
			})
		}
		quiz.Questions[i].Options = append(quiz.Questions[i].Options, domain.Option{
			ID:         optionID,
			QuestionID: questionID,
			Text:       optionText,
		})
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate questions: %w", err)
	}
	return quiz, nil
}

func (s *AnswerStore) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title FROM quizzes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizSummary
	for rows.Next() {
		var summary domain.QuizSummary
		if err := rows.Scan(&summary.ID, &summary.Title); err != nil {
			return nil, fmt.Errorf("scan quiz summary: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// DeleteQuiz removes the quiz; questions, options, and answers go with it via
// ON DELETE CASCADE.
func (s *AnswerStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *AnswerStore) ResolveParticipant(ctx context.Context, name string) (domain.Participant, error) {
	if name == "" {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	var p domain.Participant
	err := s.pool.QueryRow(ctx,
		`INSERT INTO participants (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`,
		uuid.NewString(), name).Scan(&p.ID, &p.Name)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("resolve participant: %w", err)
	}
	return p, nil
}

func (s *AnswerStore) RecordAnswer(ctx context.Context, participantID, questionID, optionID string) (domain.Answer, error) {
	var quizID string
	err := s.pool.QueryRow(ctx,
		`SELECT q.quiz_id FROM options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE o.id = $1 AND o.question_id = $2`,
		optionID, questionID).Scan(&quizID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, domain.ErrInvalidOption
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("check option: %w", err)
	}

	answer := domain.Answer{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		QuestionID:    questionID,
		OptionID:      optionID,
		ParticipantID: participantID,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO answers (id, participant_id, question_id, option_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING submitted_at`,
		answer.ID, participantID, questionID, optionID).Scan(&answer.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Answer{}, domain.ErrDuplicateAnswer
		}
		return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT name FROM participants WHERE id = $1`, participantID).Scan(&answer.ParticipantName)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load participant name: %w", err)
	}
	return answer, nil
}

func (s *AnswerStore) ListAnswers(ctx context.Context, quizID string) ([]domain.Answer, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quizzes WHERE id = $1)`, quizID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check quiz: %w", err)
	}
	if !exists {
		return nil, domain.ErrQuizNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.option_id, a.participant_id, p.name, a.submitted_at
		 FROM answers a
		 JOIN questions q ON q.id = a.question_id
		 JOIN participants p ON p.id = a.participant_id
		 WHERE q.quiz_id = $1
		 ORDER BY a.submitted_at`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		a := domain.Answer{QuizID: quizID}
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.OptionID, &a.ParticipantID, &a.ParticipantName, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
