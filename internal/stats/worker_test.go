package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendrill/internal/bus"
	"spendrill/internal/core"
)

func TestWorkerPublishesStatsOverBus(t *testing.T) {
	b := bus.New()
	w := NewWorker(b, 4)
	w.now = func() time.Time { return time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC) }

	results := make(chan Payload, 1)
	b.On(bus.TopicStatsReady, func(p any) {
		results <- p.(Payload)
	})

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	w.Submit(Request{
		Type: TypeCompute,
		Payload: RequestPayload{Transactions: []core.EnrichedTransaction{
			tx("2025-12-28", 120, "food_dining"),
			tx("2025-12-27", 45, "food_dining"),
		}},
	})

	select {
	case payload := <-results:
		assert.InDelta(t, 165, payload.CategoryTotals["food_dining"], 1e-9)
		assert.InDelta(t, 165, payload.MonthlyTotal, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no stats-ready event within 2s")
	}
}

func TestWorkerIgnoresUnknownRequestType(t *testing.T) {
	b := bus.New()
	w := NewWorker(b, 1)

	received := make(chan struct{}, 1)
	b.On(bus.TopicStatsReady, func(p any) { received <- struct{}{} })

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	w.Submit(Request{Type: "reticulate"})

	select {
	case <-received:
		t.Fatal("unknown request type produced a response")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWorkerResponsesInRequestOrder(t *testing.T) {
	b := bus.New()
	w := NewWorker(b, 8)
	w.now = func() time.Time { return time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC) }

	results := make(chan Payload, 8)
	b.On(bus.TopicStatsReady, func(p any) { results <- p.(Payload) })

	require.NoError(t, w.Start(context.Background()))

	for i := 1; i <= 3; i++ {
		w.Submit(Request{
			Type: TypeCompute,
			Payload: RequestPayload{Transactions: []core.EnrichedTransaction{
				tx("2025-12-28", float64(i*100), "a"),
			}},
		})
	}
	w.Stop()

	// Single consumer goroutine: responses arrive in request order.
	for i := 1; i <= 3; i++ {
		select {
		case payload := <-results:
			assert.InDelta(t, float64(i*100), payload.CategoryTotals["a"], 1e-9)
		case <-time.After(2 * time.Second):
			t.Fatalf("response %d never arrived", i)
		}
	}
}

func TestWorkerSubmitCopiesTransactions(t *testing.T) {
	b := bus.New()
	w := NewWorker(b, 4)

	txs := []core.EnrichedTransaction{tx("2025-12-28", 100, "a")}
	w.Submit(Request{Type: TypeCompute, Payload: RequestPayload{Transactions: txs}})

	// Mutating the caller's slice after Submit must not reach the worker;
	// the worker is not running, so this only checks the copy happened.
	txs[0].Amount = 999
}

func TestWorkerStartTwice(t *testing.T) {
	w := NewWorker(bus.New(), 1)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
}

func TestWorkerStopNotRunning(t *testing.T) {
	w := NewWorker(bus.New(), 1)
	w.Stop() // must not panic or block
	assert.False(t, w.IsRunning())
}
