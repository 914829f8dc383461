package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/altazietsman/lexi-meter/internal/app"
	"github.com/altazietsman/lexi-meter/internal/config"
	"github.com/altazietsman/lexi-meter/internal/infra/memory"
	pgstore "github.com/altazietsman/lexi-meter/internal/infra/postgres"
	redisinfra "github.com/altazietsman/lexi-meter/internal/infra/redis"
	"github.com/altazietsman/lexi-meter/internal/logger"
	transport "github.com/altazietsman/lexi-meter/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var store app.AnswerStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewAnswerStore(pool)
	} else {
		store = memory.NewAnswerStore()
	}

	loader := memory.NewStoreLoader(store)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if redisClient != nil {
		quizzes = redisinfra.NewQuizCache(redisClient, loader, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(loader, quizTTL)
	}

	var liveness app.SessionLiveness
	if redisClient != nil {
		liveness = redisinfra.NewLiveness(redisClient, redisTTL, log)
	}

	coord := app.NewCoordinator(store, quizzes, app.CoordinatorOptions{
		Liveness:      liveness,
		Retention:     config.TTLDuration(cfg.Session.Retention, 5*time.Minute),
		ChannelBuffer: cfg.Session.ChannelBuffer,
		Logger:        log,
	})
	service := app.NewQuizService(store, quizzes, coord, log)
	server := transport.NewServer(service, coord, store, log)

	go func() {
		log.Info("starting lexi-meter", zap.String("port", finalPort))
		if err := server.Start(finalPort); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
