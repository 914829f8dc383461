package domain

// EventType tags the messages pushed to connected session channels.
type EventType string

const (
	EventSnapshot   EventType = "snapshot"
	EventUpdate     EventType = "update"
	EventDeparture  EventType = "departure"
	EventQuizClosed EventType = "quizClosed"
)

// QuestionCounts holds the vote count per option for one question.
type QuestionCounts struct {
	QuestionID   string         `json:"questionId"`
	OptionCounts map[string]int `json:"optionCounts"`
}

// Snapshot is the full current tally, sent to a channel right after it joins.
type Snapshot struct {
	QuizID    string           `json:"quizId"`
	Questions []QuestionCounts `json:"questions"`
}

// Update reflects one accepted answer's effect on a single question.
type Update struct {
	QuestionID   string         `json:"questionId"`
	OptionCounts map[string]int `json:"optionCounts"`
}

// Departure announces that a participant's connection left the session.
type Departure struct {
	ParticipantID string `json:"participantId"`
}

// Event is the union of messages a session channel can receive. Exactly one
// payload field is set, matching Type.
type Event struct {
	Type      EventType  `json:"type"`
	Snapshot  *Snapshot  `json:"snapshot,omitempty"`
	Update    *Update    `json:"update,omitempty"`
	Departure *Departure `json:"departure,omitempty"`
}
