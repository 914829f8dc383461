package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/altazietsman/lexi-meter/internal/app"
)

// Server wires the REST surface and the websocket endpoint into one echo
// instance.
type Server struct {
	echo     *echo.Echo
	service  *app.QuizService
	coord    *app.Coordinator
	store    app.AnswerStore
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewServer(service *app.QuizService, coord *app.Coordinator, store app.AnswerStore, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		service: service,
		coord:   coord,
		store:   store,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.POST("/quizzes", s.handleCreateQuiz)
	api.GET("/quizzes", s.handleListQuizzes)
	api.GET("/quizzes/:id", s.handleGetQuiz)
	api.DELETE("/quizzes/:id", s.handleDeleteQuiz)
	api.POST("/quizzes/:id/answers", s.handleSubmitAnswers)

	s.echo.GET("/ws", s.handleWS)
}

func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
