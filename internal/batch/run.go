package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"epubtokens/internal/config"
)

// Run is a batch executing on its own goroutine.
type Run struct {
	ID string

	cancel context.CancelFunc
	events chan Event
	notify chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	queue  []Event
	closed bool
	state  State
	final  Done
}

// Start launches a run in the background. Events are queued without
// bound so the worker never waits for the observer; Events must be
// drained until it is closed. Start fails with ErrRunInProgress while
// another run of p is active.
func (p *Processor) Start(ctx context.Context, run config.RunConfig) (*Run, error) {
	if !p.acquire() {
		return nil, ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:     uuid.NewString(),
		cancel: cancel,
		events: make(chan Event),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		state:  Idle,
	}

	go r.pump()
	go func() {
		final := p.process(ctx, r.ID, run, r.publish)
		cancel()
		p.release()

		r.mu.Lock()
		r.final = final
		r.closed = true
		r.mu.Unlock()
		r.wake()
		close(r.done)
	}()
	return r, nil
}

// Events returns the ordered event stream. It is closed after the
// terminal event.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Cancel asks the run to stop before its next file. It is safe to call
// more than once and after the run has ended.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run ends and returns its terminal event.
func (r *Run) Wait() Done {
	<-r.done
	return r.final
}

// Finished is closed when the run has ended.
func (r *Run) Finished() <-chan struct{} {
	return r.done
}

// State returns the most recent state of the run.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Run) publish(ev Event) {
	r.mu.Lock()
	if sc, ok := ev.(StateChanged); ok {
		r.state = sc.To
	}
	r.queue = append(r.queue, ev)
	r.mu.Unlock()
	r.wake()
}

func (r *Run) wake() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Run) pump() {
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.mu.Unlock()
			<-r.notify
			r.mu.Lock()
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			close(r.events)
			return
		}
		ev := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.events <- ev
	}
}
