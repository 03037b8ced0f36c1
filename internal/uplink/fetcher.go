package uplink

import (
	"context"
	"sync"
	"time"
)

// SnapshotSource is anything that can produce a full snapshot of a system.
// Satisfied by *Client; tests substitute a stub.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, systemID int) (*Snapshot, error)
}

// Logger defines the logging interface this package requires.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// noopLogger discards all log output (used as default).
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Debug(msg string, args ...any) {}

// Fetcher polls a snapshot source on a fixed interval and hands each
// snapshot to the registered callback. One fetch is in flight at a time;
// a fetch that overruns the interval simply delays the next tick.
//
// Thread Safety:
//   - Start, Stop and the setters are safe for concurrent use.
//   - Callbacks are invoked from the fetcher's own goroutine.
type Fetcher struct {
	source   SnapshotSource
	systemID int
	interval time.Duration
	logger   Logger

	mu      sync.Mutex
	onData  func(*Snapshot)
	onError func(error)
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFetcher creates a fetcher for one system.
func NewFetcher(source SnapshotSource, systemID int, interval time.Duration) *Fetcher {
	return &Fetcher{
		source:   source,
		systemID: systemID,
		interval: interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for fetcher events. Call before Start.
func (f *Fetcher) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// SetOnData registers the callback invoked with each fetched snapshot.
// Call before Start.
func (f *Fetcher) SetOnData(fn func(*Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onData = fn
}

// SetOnError registers the callback invoked when a fetch fails. Failed
// cycles are skipped, not retried early; the next tick tries again.
// Call before Start.
func (f *Fetcher) SetOnError(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onError = fn
}

// Start launches the polling loop. The first fetch happens immediately,
// subsequent ones on the configured interval. Returns ErrAlreadyRunning
// when the fetcher is already started.
func (f *Fetcher) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.running = true
	f.cancel = cancel
	f.done = make(chan struct{})

	f.logger.Info("starting uplink fetcher",
		"system_id", f.systemID,
		"interval", f.interval.String())

	go f.loop(runCtx, f.done)

	return nil
}

// Stop cancels the polling loop and waits for it to exit. Safe to call on
// a fetcher that was never started.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	cancel := f.cancel
	done := f.done
	f.running = false
	f.cancel = nil
	f.mu.Unlock()

	cancel()
	<-done

	f.logger.Info("uplink fetcher stopped", "system_id", f.systemID)
}

// loop is the polling goroutine.
func (f *Fetcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	f.fetch(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.fetch(ctx)
		}
	}
}

// fetch performs one polling cycle and dispatches the result.
func (f *Fetcher) fetch(ctx context.Context) {
	snap, err := f.source.FetchSnapshot(ctx, f.systemID)

	f.mu.Lock()
	onData := f.onData
	onError := f.onError
	f.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("snapshot fetch failed",
			"system_id", f.systemID,
			"error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	f.logger.Debug("snapshot fetched",
		"system_id", f.systemID,
		"units", len(snap.Units))

	if onData != nil {
		onData(snap)
	}
}
