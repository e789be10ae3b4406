package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartRunsImmediatelyAndRepeats(t *testing.T) {
	var calls atomic.Int32

	task := Start(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, Options{})

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	task.Stop()

	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	task := Start(context.Background(), time.Hour, func(ctx context.Context) error { return nil }, Options{})
	task.Stop()
	task.Stop()

	select {
	case <-task.Done():
	default:
		t.Fatal("task still running")
	}
}

func TestErrorsAreReportedAndPollingContinues(t *testing.T) {
	var calls, reported atomic.Int32

	task := Start(context.Background(), 5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("connection error")
	}, Options{OnError: func(err error) {
		reported.Add(1)
	}})
	defer task.Stop()

	assert.Eventually(t, func() bool { return reported.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), reported.Load())
}

func TestParentContextCancelStopsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, time.Hour, func(ctx context.Context) error { return nil }, Options{})

	cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not exit after parent cancel")
	}
	task.Stop()
}
