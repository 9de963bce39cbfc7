package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartRunsRefreshImmediately(t *testing.T) {
	done := make(chan struct{}, 1)
	s := New(time.Minute, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("expected refresh context to carry a deadline")
		}
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("refresh did not run")
	}
}

func TestRunLogsFailures(t *testing.T) {
	calls := 0
	s := New(time.Minute, func(context.Context) error {
		calls++
		return errors.New("upstream down")
	})
	s.run()
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestStartWithoutJob(t *testing.T) {
	s := New(time.Minute, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}
