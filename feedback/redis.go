package feedback

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// DefaultQueueKey is the redis list the learning pipeline consumes.
const DefaultQueueKey = "faqflow:feedback"

// RedisQueue is a Hook that pushes payloads onto a redis list. The pipeline
// pops with BRPOP, so the list behaves as a FIFO queue.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisQueue wraps an existing client. An empty key selects
// DefaultQueueKey.
func NewRedisQueue(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{
		client: client,
		key:    key,
		logger: logger.With(zap.String("component", "feedback_queue")),
	}
}

func (q *RedisQueue) Forward(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return types.NewError(types.ErrInternal, "feedback enqueue failed").
			WithRetryable(true).WithCause(err)
	}
	return nil
}

// Pending returns the number of queued payloads. Used by tests and the
// admin surface.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
