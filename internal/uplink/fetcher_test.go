package uplink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubSource returns queued results in order, repeating the last one.
type stubSource struct {
	mu      sync.Mutex
	results []stubResult
	idx     int
	calls   int
}

type stubResult struct {
	snap *Snapshot
	err  error
}

func (s *stubSource) FetchSnapshot(ctx context.Context, systemID int) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	r := s.results[s.idx]
	if s.idx < len(s.results)-1 {
		s.idx++
	}
	return r.snap, r.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFetcher_DeliversSnapshots(t *testing.T) {
	src := &stubSource{results: []stubResult{
		{snap: &Snapshot{SystemID: 123}},
	}}

	f := NewFetcher(src, 123, 10*time.Millisecond)

	got := make(chan *Snapshot, 1)
	f.SetOnData(func(snap *Snapshot) {
		select {
		case got <- snap:
		default:
		}
	})

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.Stop()

	select {
	case snap := <-got:
		if snap.SystemID != 123 {
			t.Errorf("SystemID = %d, want 123", snap.SystemID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestFetcher_ReportsErrors(t *testing.T) {
	fetchErr := errors.New("boom")
	src := &stubSource{results: []stubResult{
		{err: fetchErr},
		{snap: &Snapshot{SystemID: 123}},
	}}

	f := NewFetcher(src, 123, 10*time.Millisecond)

	errs := make(chan error, 1)
	f.SetOnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	snaps := make(chan *Snapshot, 1)
	f.SetOnData(func(snap *Snapshot) {
		select {
		case snaps <- snap:
		default:
		}
	})

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.Stop()

	select {
	case err := <-errs:
		if !errors.Is(err, fetchErr) {
			t.Errorf("error = %v, want %v", err, fetchErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error callback")
	}

	// A failed cycle does not stop the loop; the next tick succeeds.
	select {
	case <-snaps:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot after failed cycle")
	}
}

func TestFetcher_StartTwice(t *testing.T) {
	src := &stubSource{results: []stubResult{{snap: &Snapshot{}}}}
	f := NewFetcher(src, 123, time.Hour)

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer f.Stop()

	if err := f.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestFetcher_StopWaitsAndIsIdempotent(t *testing.T) {
	src := &stubSource{results: []stubResult{{snap: &Snapshot{}}}}
	f := NewFetcher(src, 123, 5*time.Millisecond)

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.Stop()
	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	if src.callCount() != calls {
		t.Error("fetches continued after Stop")
	}

	f.Stop() // second Stop must not panic or block
}

func TestFetcher_StopNeverStarted(t *testing.T) {
	f := NewFetcher(&stubSource{results: []stubResult{{snap: &Snapshot{}}}}, 123, time.Hour)
	f.Stop()
}
