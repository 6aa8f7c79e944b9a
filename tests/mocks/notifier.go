package mocks

import (
	"context"
	"sync"

	"github.com/microlend/loan-engine/internal/notify"
)

// RecordingNotifier captures every event the engine emits, so tests can
// assert on what would have been delivered.
type RecordingNotifier struct {
	mu     sync.Mutex
	Events []notify.Event
	// Err, when set, is returned from Send to exercise the
	// fire-and-forget paths.
	Err error
}

func (n *RecordingNotifier) Send(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, event)
	return n.Err
}

// Kinds returns the kinds of all captured events, in order.
func (n *RecordingNotifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, len(n.Events))
	for i, e := range n.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

// CountKind returns how many captured events carry the given kind.
func (n *RecordingNotifier) CountKind(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.Events {
		if e.Kind == kind {
			count++
		}
	}
	return count
}
