package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls chan struct{}
}

func newRecordingMailer(capacity int) *recordingMailer {
	return &recordingMailer{calls: make(chan struct{}, capacity)}
}

func (m *recordingMailer) SendWelcome(email, name string) error {
	return m.record("welcome", email)
}

func (m *recordingMailer) SendCancellation(email, name string) error {
	return m.record("cancellation", email)
}

func (m *recordingMailer) record(kind, email string) error {
	m.mu.Lock()
	m.sent = append(m.sent, kind+":"+email)
	fail := m.fail
	m.mu.Unlock()
	m.calls <- struct{}{}
	if fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *recordingMailer) wait(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func TestDispatcher_DeliversThroughWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer(2)
	d := NewDispatcher(2, mailer, zerolog.Nop())
	d.Start(ctx)

	if err := d.SendWelcome("ann@x.com", "Ann"); err != nil {
		t.Fatalf("enqueue welcome: %v", err)
	}
	if err := d.SendCancellation("bob@x.com", "Bob"); err != nil {
		t.Fatalf("enqueue cancellation: %v", err)
	}

	sent := mailer.wait(t, 2)
	got := map[string]bool{}
	for _, s := range sent {
		got[s] = true
	}
	if !got["welcome:ann@x.com"] || !got["cancellation:bob@x.com"] {
		t.Fatalf("unexpected deliveries: %v", sent)
	}
}

func TestDispatcher_SameRecipientStaysOrdered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer(8)
	d := NewDispatcher(4, mailer, zerolog.Nop())
	d.Start(ctx)

	// Welcome then cancellation for one account must arrive in that order
	// regardless of how many workers run.
	for i := 0; i < 4; i++ {
		email := fmt.Sprintf("user%d@x.com", i)
		if err := d.SendWelcome(email, "U"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if err := d.SendCancellation(email, "U"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	sent := mailer.wait(t, 8)
	welcomeAt := map[string]int{}
	for i, s := range sent {
		var kind, email string
		if n, err := fmt.Sscanf(s, "welcome:%s", &email); err == nil && n == 1 {
			kind = "welcome"
		} else if n, err := fmt.Sscanf(s, "cancellation:%s", &email); err == nil && n == 1 {
			kind = "cancellation"
		}
		switch kind {
		case "welcome":
			welcomeAt[email] = i
		case "cancellation":
			at, ok := welcomeAt[email]
			if !ok || at > i {
				t.Fatalf("cancellation before welcome for %s: %v", email, sent)
			}
		}
	}
}

func TestDispatcher_DeliveryFailureDoesNotStopWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer(2)
	mailer.fail = true
	d := NewDispatcher(1, mailer, zerolog.Nop())
	d.Start(ctx)

	if err := d.SendWelcome("ann@x.com", "Ann"); err != nil {
		t.Fatalf("enqueue should not surface delivery errors, got %v", err)
	}
	mailer.wait(t, 1)

	mailer.mu.Lock()
	mailer.fail = false
	mailer.mu.Unlock()

	if err := d.SendWelcome("ann@x.com", "Ann"); err != nil {
		t.Fatalf("enqueue after failure: %v", err)
	}
	sent := mailer.wait(t, 2)
	if len(sent) != 2 {
		t.Fatalf("worker stopped after a delivery failure: %v", sent)
	}
}

func TestDispatcher_FullShardDropsInsteadOfBlocking(t *testing.T) {
	// No Start: nothing drains the single shard, so everything past the
	// buffer must be dropped without blocking the caller.
	d := NewDispatcher(1, newRecordingMailer(1), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < channelBuffer+8; i++ {
			if err := d.SendWelcome("ann@x.com", "Ann"); err != nil {
				t.Errorf("enqueue %d: %v", i, err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a full shard")
	}
}

func TestDispatcher_DefaultsWorkerCount(t *testing.T) {
	d := NewDispatcher(0, newRecordingMailer(1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
