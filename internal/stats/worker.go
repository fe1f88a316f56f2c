package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendrill/internal/bus"
	"spendrill/internal/core"
)

// Worker computes spending statistics off the caller's goroutine. It is
// stateless between requests: each request is one Compute pass over the
// transactions it carries. Nothing is shared across the boundary: Submit
// copies the slice in, and results travel over the bus as payload copies.
//
// Requests are consumed by a single goroutine, so responses are published in
// request order. Callers should still treat the most recent stats-ready
// payload as the authoritative one.
type Worker struct {
	bus    *bus.Bus
	buffer int
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	requests chan Request
	done     chan struct{}
}

// NewWorker creates a worker publishing results on b. buffer is the request
// queue depth; submissions beyond it are dropped rather than blocking the
// caller.
func NewWorker(b *bus.Bus, buffer int) *Worker {
	if buffer < 1 {
		buffer = 1
	}
	return &Worker{
		bus:    b,
		buffer: buffer,
		now:    time.Now,
	}
}

// Start launches the consumer goroutine. Starting a running worker is an
// error.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("stats worker already running")
	}
	w.running = true
	w.requests = make(chan Request, w.buffer)
	w.done = make(chan struct{})

	go w.run(ctx, w.requests, w.done)
	slog.Info("stats worker started", "buffer", w.buffer)
	return nil
}

// Stop shuts the worker down and waits for the consumer goroutine to exit.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	done := w.done
	close(w.requests)
	w.mu.Unlock()

	<-done
	slog.Info("stats worker stopped")
}

// IsRunning reports whether the consumer goroutine is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Submit enqueues a request, fire and forget. The transaction slice is
// copied before it crosses the boundary. Requests with an unknown type are
// ignored; a full queue drops the request with a warning.
func (w *Worker) Submit(req Request) {
	if req.Type != TypeCompute {
		slog.Debug("ignoring unknown stats request type", "type", req.Type)
		return
	}

	copied := make([]core.EnrichedTransaction, len(req.Payload.Transactions))
	copy(copied, req.Payload.Transactions)
	req.Payload.Transactions = copied

	// The send shares the mutex with Stop so a request can never race the
	// channel close.
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		slog.Warn("stats request dropped, worker not running")
		return
	}

	select {
	case w.requests <- req:
	default:
		slog.Warn("stats request dropped, queue full", "queued", cap(w.requests))
	}
}

func (w *Worker) run(ctx context.Context, requests <-chan Request, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			resp := Response{Type: TypeStats, Payload: Compute(req.Payload.Transactions, w.now())}
			payload := resp.Payload
			w.bus.Emit(bus.TopicStatsReady, payload)
			slog.Debug("stats computed",
				"transactions", len(req.Payload.Transactions),
				"categories", len(payload.CategoryTotals))
		}
	}
}
