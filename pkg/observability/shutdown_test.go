package observability

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownManager_RunsAllFuncs(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, io.Discard), 5*time.Second)

	var calls int32
	for i := 0; i < 3; i++ {
		sm.Register(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestShutdownManager_ReportsErrors(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, io.Discard), 5*time.Second)

	sm.Register(func(ctx context.Context) error { return nil })
	sm.Register(func(ctx context.Context) error { return errors.New("close failed") })

	if err := sm.Shutdown(); err == nil {
		t.Error("Shutdown() expected error when a func fails")
	}
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(NewLogger(ErrorLevel, io.Discard), 50*time.Millisecond)

	sm.Register(func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			// Keep blocking past the deadline to force the timeout path.
			time.Sleep(200 * time.Millisecond)
			return ctx.Err()
		}
	})

	if err := sm.Shutdown(); err == nil {
		t.Error("Shutdown() expected timeout error")
	}
}
