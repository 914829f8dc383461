package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Liveness marks active quiz sessions in Redis (SET quiz:session:{quizID}).
// The markers are best effort: they let operators see which quizzes are live
// and could be extended to route cross-instance pub/sub, but session state
// itself stays in process.
type Liveness struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewLiveness(client *redis.Client, ttl time.Duration, log *zap.Logger) *Liveness {
	if log == nil {
		log = zap.NewNop()
	}
	return &Liveness{client: client, ttl: ttl, log: log}
}

func (l *Liveness) Mark(ctx context.Context, quizID string) {
	if err := l.client.Set(ctx, l.key(quizID), "1", l.ttl).Err(); err != nil {
		l.log.Warn("session liveness mark failed", zap.String("quizId", quizID), zap.Error(err))
	}
}

func (l *Liveness) Clear(ctx context.Context, quizID string) {
	if err := l.client.Del(ctx, l.key(quizID)).Err(); err != nil {
		l.log.Warn("session liveness clear failed", zap.String("quizId", quizID), zap.Error(err))
	}
}

func (l *Liveness) key(quizID string) string {
	return "quiz:session:" + quizID
}
