package reconcile

import (
	"context"

	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

// Coordinator serialises reconciliation passes.
//
// Snapshots arrive through Submit from the fetcher's goroutine; a single
// drain goroutine (Run) feeds them to the engine one at a time. The buffer
// holds exactly one pending snapshot and Submit replaces it, so when passes
// run slower than polling the engine always works on the freshest data and
// stale intermediate snapshots are dropped, never queued.
type Coordinator struct {
	engine *Engine
	ch     chan *uplink.Snapshot
	logger Logger
}

// NewCoordinator creates a coordinator for the engine.
func NewCoordinator(engine *Engine) *Coordinator {
	return &Coordinator{
		engine: engine,
		ch:     make(chan *uplink.Snapshot, 1),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Submit hands a snapshot over for reconciliation. Never blocks: if a
// snapshot is already pending it is discarded in favour of this one.
func (c *Coordinator) Submit(snap *uplink.Snapshot) {
	for {
		select {
		case c.ch <- snap:
			return
		default:
		}
		// Buffer full: evict the stale snapshot and retry.
		select {
		case dropped := <-c.ch:
			c.logger.Debug("dropping stale snapshot",
				"system_id", dropped.SystemID,
				"fetched_at", dropped.FetchedAt)
		default:
		}
	}
}

// SubmitError reports a failed polling cycle. The cycle is skipped; no
// reconciliation runs, so entities are never retired over a fetch failure.
func (c *Coordinator) SubmitError(err error) {
	c.logger.Warn("polling cycle failed, skipping reconciliation", "error", err)
}

// Run drains submitted snapshots until the context is cancelled. Exactly
// one pass is in flight at any time. Run blocks; start it in a goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-c.ch:
			if _, err := c.engine.Reconcile(ctx, snap); err != nil {
				c.logger.Error("reconciliation pass failed", "error", err)
			}
		}
	}
}
