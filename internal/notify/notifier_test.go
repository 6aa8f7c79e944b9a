package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisNotifierPublishes(t *testing.T) {
	client, mock := redismock.NewClientMock()
	notifier := NewRedisNotifier(client, "loan-events")

	event := Event{
		Kind:       EventReminderT3,
		LoanID:     uuid.New(),
		BorrowerID: "BRW-1",
		Amount:     18333,
		DueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		OccurredAt: time.Date(2026, 2, 26, 9, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	mock.ExpectPublish("loan-events", payload).SetVal(1)

	err = notifier.Send(context.Background(), event)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogNotifierNeverFails(t *testing.T) {
	notifier := NewLogNotifier()

	err := notifier.Send(context.Background(), Event{
		Kind:       EventInsufficientFunds,
		LoanID:     uuid.New(),
		BorrowerID: "BRW-2",
		Amount:     10000,
	})
	assert.NoError(t, err)
}
