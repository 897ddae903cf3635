package managers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"storefront-auth/internal/tasks"
)

// QueueMgr is the interface the request handlers use to hand work off to the
// background workers. Handlers only enqueue; delivery, retries and failure
// handling are queue-side concerns.
type QueueMgr interface {
	EnqueueActivationEmail(ctx context.Context, userId int64, activationLink string) error
	Close() error
}

// QueueManager wraps an asynq client connected to Redis.
type QueueManager struct {
	client *asynq.Client
}

// NewQueueManager creates a new QueueManager for the given Redis connection.
func NewQueueManager(redisOpt asynq.RedisClientOpt) QueueMgr {
	log.Info("Initializing queue manager")
	return &QueueManager{client: asynq.NewClient(redisOpt)}
}

// EnqueueActivationEmail places an activation email job on the queue. The job
// is retried by the workers with exponential backoff, so a transient mail
// outage never surfaces to the registering user.
func (qm *QueueManager) EnqueueActivationEmail(ctx context.Context, userId int64, activationLink string) error {
	task, err := tasks.NewActivationEmailTask(userId, activationLink)
	if err != nil {
		return err
	}

	info, err := qm.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue activation email: %w", err)
	}

	log.WithFields(log.Fields{"taskId": info.ID, "queue": info.Queue}).Debug("Enqueued activation email")
	return nil
}

// Close closes the underlying client connection.
func (qm *QueueManager) Close() error {
	return qm.client.Close()
}
