package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/microlend/loan-engine/pkg/money"
)

// Event kinds the engine emits. Delivery (email/SMS/push) is an external
// collaborator's job; the engine only decides that and when to notify.
const (
	EventReminderT3        = "reminder.T-3"
	EventReminderT1        = "reminder.T-1"
	EventReminderT0        = "reminder.T0"
	EventPaymentCompleted  = "payment.completed"
	EventInsufficientFunds = "payment.insufficient_funds"
	EventLoanCompleted     = "loan.completed"
	EventLoanSuspended     = "loan.suspended"
)

// DefaultChannel is the Redis pub/sub channel delivery workers subscribe to.
const DefaultChannel = "loan-engine:notifications"

// Event is one domain notification.
type Event struct {
	Kind       string    `json:"kind"`
	LoanID     uuid.UUID `json:"loan_id"`
	BorrowerID string    `json:"borrower_id"`
	Amount     int64     `json:"amount,omitempty"`
	DueDate    time.Time `json:"due_date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier is the delivery port. Implementations must be safe for
// concurrent use; the scheduler fires and forgets.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LogNotifier writes events to the operational log. Used in development
// and as the fallback delivery target.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, event Event) error {
	log.Printf("notify %s loan=%s borrower=%s amount=%s due=%s",
		event.Kind, event.LoanID, event.BorrowerID,
		money.Format(event.Amount), event.DueDate.Format("2006-01-02"))
	return nil
}

// RedisNotifier publishes events to a Redis channel for an external
// delivery worker to pick up.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return n.client.Publish(ctx, n.channel, payload).Err()
}
