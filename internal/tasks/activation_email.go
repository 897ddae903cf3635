package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"storefront-auth/internal/interfaces"
)

// ActivationEmailPayload is the JSON body of an activation email task.
type ActivationEmailPayload struct {
	UserID         int64  `json:"user_id"`
	ActivationLink string `json:"activation_link"`
}

// MailSender is the slice of the mail manager the task handler needs.
type MailSender interface {
	SendActivationMail(email, firstName, activationLink string) error
}

// NewActivationEmailTask creates the queue task for sending an activation
// email to the given user.
func NewActivationEmailTask(userId int64, activationLink string) (*asynq.Task, error) {
	payload, err := json.Marshal(ActivationEmailPayload{
		UserID:         userId,
		ActivationLink: activationLink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activation email payload: %w", err)
	}

	return asynq.NewTask(TypeActivationEmail, payload,
		asynq.MaxRetry(maxActivationEmailRetries),
		asynq.Queue(QueueDefault),
	), nil
}

// Handler processes queued tasks on the worker side.
type Handler struct {
	pool interfaces.PgxPoolIface
	mail MailSender
}

// NewHandler creates a task handler backed by the given pool and mail sender.
func NewHandler(pool interfaces.PgxPoolIface, mail MailSender) *Handler {
	return &Handler{pool: pool, mail: mail}
}

// HandleActivationEmailTask loads the recipient and sends the activation
// email. A missing user is fatal for this task instance: the id was wrong or
// the account is gone, and no amount of retrying brings it back. Transport
// errors are returned as-is so the queue retries them with backoff.
func (h *Handler) HandleActivationEmailTask(ctx context.Context, task *asynq.Task) error {
	var payload ActivationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal activation email payload: %v: %w", err, asynq.SkipRetry)
	}

	var email, firstName string
	row := h.pool.QueryRow(ctx, "SELECT email, first_name FROM users WHERE user_id = $1", payload.UserID)
	if err := row.Scan(&email, &firstName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user with id %d does not exist: %w", payload.UserID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load user %d: %w", payload.UserID, err)
	}

	if err := h.mail.SendActivationMail(email, firstName, payload.ActivationLink); err != nil {
		return fmt.Errorf("failed to send activation email to user %d: %w", payload.UserID, err)
	}

	log.WithField("userId", payload.UserID).Info("Activation email sent")
	return nil
}
