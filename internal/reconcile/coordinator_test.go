package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

func TestCoordinator_RunsSubmittedSnapshot(t *testing.T) {
	engine, registry := newTestEngine(t)
	coord := NewCoordinator(engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Run(ctx)
	}()

	coord.Submit(snapshot(unitWith(0,
		category("STATUS", uplink.Parameter{Key: "40004", DisplayValue: "2.1°C"}),
	)))

	deadline := time.After(time.Second)
	for registry.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reconciliation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit on context cancellation")
	}
}

func TestCoordinator_SubmitNeverBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	coord := NewCoordinator(engine)

	// No Run goroutine draining: submissions must still return promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			coord.Submit(snapshot(unitWith(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked with a full buffer")
	}
}

func TestCoordinator_LatestWins(t *testing.T) {
	engine, registry := newTestEngine(t)
	coord := NewCoordinator(engine)

	// Two submissions before the drain starts: only the newest survives.
	coord.Submit(snapshot(unitWith(0,
		category("STATUS", uplink.Parameter{Key: "40004", DisplayValue: "stale"}),
	)))
	coord.Submit(snapshot(unitWith(0,
		category("STATUS", uplink.Parameter{Key: "40004", DisplayValue: "fresh"}),
	)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	deadline := time.After(time.Second)
	for registry.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reconciliation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	entities, err := registry.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := entities[0].State["40004"]; got != "fresh" {
		t.Errorf("State[40004] = %v, want the newest snapshot's reading", got)
	}
}

func TestCoordinator_SubmitErrorSkipsCycle(t *testing.T) {
	engine, registry := newTestEngine(t)
	coord := NewCoordinator(engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx)

	// Seed one entity.
	coord.Submit(snapshot(unitWith(0,
		category("STATUS", uplink.Parameter{Key: "40004", DisplayValue: "2.1°C"}),
	)))
	deadline := time.After(time.Second)
	for registry.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reconciliation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// A fetch failure must not reconcile (and so must not retire).
	coord.SubmitError(context.DeadlineExceeded)
	time.Sleep(20 * time.Millisecond)

	if registry.Count() != 1 {
		t.Errorf("registry count = %d after fetch failure, want 1", registry.Count())
	}
}
