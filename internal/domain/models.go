package domain

import "time"

// Quiz is the full structure of one quiz: title, owner, and ordered questions.
// Immutable after creation except for deletion, which cascades.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	Questions []Question `json:"questions"`
}

// Question belongs to exactly one quiz and carries 2-5 options.
type Question struct {
	ID      string   `json:"id"`
	QuizID  string   `json:"quizId"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Option is one possible answer to a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

// Participant is resolved once by display name; not authenticated.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Answer is one participant's persisted vote for one option.
type Answer struct {
	ID              string    `json:"id"`
	QuizID          string    `json:"quizId"`
	QuestionID      string    `json:"questionId"`
	OptionID        string    `json:"optionId"`
	ParticipantID   string    `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// QuizSummary is the listing view of a quiz.
type QuizSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// QuizDraft is the creation payload for a quiz.
type QuizDraft struct {
	Title     string          `json:"title"`
	UserID    string          `json:"userId"`
	Questions []QuestionDraft `json:"questions"`
}

// QuestionDraft is the creation payload for one question and its option texts.
type QuestionDraft struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}
