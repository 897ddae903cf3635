// Package tasks defines the background jobs executed by the queue workers.
package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeActivationEmail = "email:activation"
)

// QueueDefault is the queue activation emails are placed on.
const QueueDefault = "default"

// maxActivationEmailRetries bounds how often a failed send is reattempted
// before the task lands in the archive for manual inspection.
const maxActivationEmailRetries = 3

const baseRetryDelay = 60 * time.Second

// RetryDelay implements the worker's backoff policy: the n-th retry waits
// baseRetryDelay * 2^(n-1), so 60s, 120s, 240s. Plugged into the asynq server
// as its RetryDelayFunc.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 1 {
		n = 1
	}
	return baseRetryDelay << uint(n-1)
}
