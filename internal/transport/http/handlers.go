package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altazietsman/lexi-meter/internal/domain"
)

type submitAnswersRequest struct {
	ParticipantName string                    `json:"participantName"`
	Answers         []domain.AnswerSubmission `json:"answers"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleCreateQuiz(c echo.Context) error {
	var draft domain.QuizDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	id, err := s.service.CreateQuiz(c.Request().Context(), draft)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"quizId": id})
}

func (s *Server) handleListQuizzes(c echo.Context) error {
	quizzes, err := s.service.ListQuizzes(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	if quizzes == nil {
		quizzes = []domain.QuizSummary{}
	}
	return c.JSON(http.StatusOK, quizzes)
}

func (s *Server) handleGetQuiz(c echo.Context) error {
	detail, err := s.service.GetQuizDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleDeleteQuiz(c echo.Context) error {
	if err := s.service.DeleteQuiz(c.Request().Context(), c.Param("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSubmitAnswers(c echo.Context) error {
	var req submitAnswersRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	updates, err := s.service.SubmitAnswers(c.Request().Context(), c.Param("id"), req.ParticipantName, req.Answers)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"updates": updates})
}

func (s *Server) writeError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), errorResponse{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrAlreadyJoined):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
