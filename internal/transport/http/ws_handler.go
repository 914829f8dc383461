package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

const writeTimeout = 5 * time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type ackMessage struct {
	Type   string        `json:"type"`
	Update domain.Update `json:"update"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleWS upgrades the request and wires the connection into the live
// session: join with snapshot, answers in, tally updates out.
func (s *Server) handleWS(c echo.Context) error {
	quizID := c.QueryParam("quizId")
	name := c.QueryParam("name")
	if quizID == "" || name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "missing quizId or name"})
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ctx := c.Request().Context()
	participant, err := s.store.ResolveParticipant(ctx, name)
	if err != nil {
		_ = conn.WriteJSON(errorMessage{Type: "error", Message: err.Error()})
		return nil
	}

	ch, err := s.coord.Join(ctx, quizID, participant.ID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage{Type: "error", Message: err.Error()})
		return nil
	}
	defer s.coord.Leave(quizID, ch)

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debug("ws write error", zap.String("quizId", quizID), zap.Error(err))
				return
			}
		}
	}()

	// Forward session events to the writer. When the event channel closes the
	// session evicted us or was torn down; drop the connection.
	go func() {
		defer close(forwardDone)
		for {
			select {
			case ev, ok := <-ch.Events():
				if !ok {
					_ = conn.Close()
					return
				}
				select {
				case send <- ev:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage{Type: "error", Message: "invalid answer payload"}
				continue
			}
			update, err := s.coord.Submit(ctx, quizID, participant.ID, payload.QuestionID, payload.OptionID)
			if err != nil {
				send <- errorMessage{Type: "error", Message: err.Error()}
				continue
			}
			send <- ackMessage{Type: "ack", Update: update}
		default:
			send <- errorMessage{Type: "error", Message: "unsupported message type"}
		}
	}

	close(closeSignals)
	<-forwardDone
	close(send)
	<-writerDone
	return nil
}
