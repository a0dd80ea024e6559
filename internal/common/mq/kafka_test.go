package mq

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDeliverWithRetrySucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	handler := func(ctx context.Context, m *Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	m := NewMessage([]byte("payload"))
	m.MaxRetries = 5
	delivered := deliverWithRetry(context.Background(), m, handler, time.Millisecond, nil)

	if !delivered {
		t.Fatal("expected delivery")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if m.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", m.RetryCount)
	}
}

func TestDeliverWithRetryDeadLettersAfterMaxRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	handler := func(ctx context.Context, m *Message) error {
		attempts++
		return errors.New("permanent")
	}

	var deadLettered *Message
	deadLetter := func(ctx context.Context, m *Message) {
		deadLettered = m
	}

	m := NewMessage([]byte("payload"))
	m.MaxRetries = 2
	delivered := deliverWithRetry(context.Background(), m, handler, time.Millisecond, deadLetter)

	// dead-lettered messages are consumed so the group does not redeliver
	if !delivered {
		t.Fatal("expected dead-lettered message to count as consumed")
	}
	if attempts != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d", attempts)
	}
	if deadLettered == nil || deadLettered.RetryCount != 3 {
		t.Fatalf("expected dead letter with retry count 3, got %+v", deadLettered)
	}
}

func TestDeliverWithRetryStopsWhenContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	handler := func(ctx context.Context, m *Message) error {
		cancel()
		return errors.New("transient")
	}

	m := NewMessage([]byte("payload"))
	m.MaxRetries = 100

	start := time.Now()
	delivered := deliverWithRetry(ctx, m, handler, time.Hour, nil)

	if delivered {
		t.Fatal("expected message left unconsumed on shutdown")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("retry wait ignored cancellation, took %v", elapsed)
	}
}
