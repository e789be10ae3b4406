package poller

import (
	"context"
	"sync"
	"time"
)

// Task runs a function on a fixed interval until stopped.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type Options struct {
	// OnError receives every error returned by the polled function. Polling
	// continues afterwards.
	OnError func(error)
}

// Start runs fn immediately and then every interval.
func Start(ctx context.Context, interval time.Duration, fn func(context.Context) error, opts Options) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := fn(ctx); err != nil && ctx.Err() == nil && opts.OnError != nil {
				opts.OnError(err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return t
}

// Stop cancels the task and waits for the running call to return.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the task has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
