package domain

// AnswerSubmission is one answer in a submit request.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

// QuizDetail is the full read view of a quiz, including vote counts and the
// participants behind them.
type QuizDetail struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Questions []QuestionDetail `json:"questions"`
}

type QuestionDetail struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Options []OptionDetail `json:"options"`
}

type OptionDetail struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	VoteCount    int           `json:"voteCount"`
	Participants []Participant `json:"participants"`
}
