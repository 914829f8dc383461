package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

type wsMessage struct {
	Type      string            `json:"type"`
	Snapshot  *domain.Snapshot  `json:"snapshot"`
	Update    *domain.Update    `json:"update"`
	Departure *domain.Departure `json:"departure"`
	Message   string            `json:"message"`
}

func dialWS(t *testing.T, f *serverFixture, quizID, name string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(f, quizID, name), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsURL(f *serverFixture, quizID, name string) string {
	q := url.Values{"quizId": {quizID}, "name": {name}}
	return "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws?" + q.Encode()
}

func readNext(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sendAnswer(t *testing.T, conn *websocket.Conn, questionID, optionID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]string{"questionId": questionID, "optionId": optionID},
	}))
}

func TestWSJoinReceivesSnapshot(t *testing.T) {
	f := newServerFixture(t)

	conn := dialWS(t, f, f.quiz.ID, "Alice")
	msg := readNext(t, conn)
	require.Equal(t, "snapshot", msg.Type)
	require.NotNil(t, msg.Snapshot)
	require.Equal(t, f.quiz.ID, msg.Snapshot.QuizID)
	for _, q := range msg.Snapshot.Questions {
		for _, count := range q.OptionCounts {
			require.Zero(t, count)
		}
	}
}

func TestWSAnswerFlow(t *testing.T) {
	f := newServerFixture(t)
	q := f.quiz.Questions[0]

	alice := dialWS(t, f, f.quiz.ID, "Alice")
	bob := dialWS(t, f, f.quiz.ID, "Bob")
	require.Equal(t, "snapshot", readNext(t, alice).Type)
	require.Equal(t, "snapshot", readNext(t, bob).Type)

	sendAnswer(t, alice, q.ID, q.Options[0].ID)

	// Alice gets her ack and the broadcast update; their order is not fixed.
	got := map[string]wsMessage{}
	for i := 0; i < 2; i++ {
		msg := readNext(t, alice)
		got[msg.Type] = msg
	}
	require.Contains(t, got, "ack")
	require.Contains(t, got, "update")
	require.Equal(t, 1, got["ack"].Update.OptionCounts[q.Options[0].ID])

	msg := readNext(t, bob)
	require.Equal(t, "update", msg.Type)
	require.Equal(t, q.ID, msg.Update.QuestionID)
	require.Equal(t, 1, msg.Update.OptionCounts[q.Options[0].ID])

	// Duplicate answer is answered with an error, no broadcast.
	sendAnswer(t, alice, q.ID, q.Options[1].ID)
	msg = readNext(t, alice)
	require.Equal(t, "error", msg.Type)
	require.Contains(t, msg.Message, "already answered")
}

func TestWSLateJoinerSeesCurrentCounts(t *testing.T) {
	f := newServerFixture(t)
	q := f.quiz.Questions[0]

	alice := dialWS(t, f, f.quiz.ID, "Alice")
	require.Equal(t, "snapshot", readNext(t, alice).Type)
	sendAnswer(t, alice, q.ID, q.Options[0].ID)
	for i := 0; i < 2; i++ {
		readNext(t, alice) // ack + update
	}

	bob := dialWS(t, f, f.quiz.ID, "Bob")
	msg := readNext(t, bob)
	require.Equal(t, "snapshot", msg.Type)
	require.Equal(t, 1, msg.Snapshot.Questions[0].OptionCounts[q.Options[0].ID])
}

func TestWSDisconnectBroadcastsDeparture(t *testing.T) {
	f := newServerFixture(t)

	alice := dialWS(t, f, f.quiz.ID, "Alice")
	bob := dialWS(t, f, f.quiz.ID, "Bob")
	require.Equal(t, "snapshot", readNext(t, alice).Type)
	require.Equal(t, "snapshot", readNext(t, bob).Type)

	participant, err := f.store.ResolveParticipant(context.Background(), "Alice")
	require.NoError(t, err)

	require.NoError(t, alice.Close())

	msg := readNext(t, bob)
	require.Equal(t, "departure", msg.Type)
	require.Equal(t, participant.ID, msg.Departure.ParticipantID)
}

func TestWSUnknownQuiz(t *testing.T) {
	f := newServerFixture(t)

	conn := dialWS(t, f, "no-such-quiz", "Alice")
	msg := readNext(t, conn)
	require.Equal(t, "error", msg.Type)
	require.Contains(t, msg.Message, "quiz not found")
}

func TestWSMissingParamsRejected(t *testing.T) {
	f := newServerFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(f, f.quiz.ID, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWSUnsupportedMessageType(t *testing.T) {
	f := newServerFixture(t)

	conn := dialWS(t, f, f.quiz.ID, "Alice")
	require.Equal(t, "snapshot", readNext(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	msg := readNext(t, conn)
	require.Equal(t, "error", msg.Type)
}
