package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// defaultResolveTimeout bounds factory construction during resolution.
const defaultResolveTimeout = 5 * time.Second

// Registry maps category-type tags to handlers.
//
// Factories register at startup; handler instances are constructed lazily
// on first resolution and cached for the process lifetime. Tags are
// case-insensitive throughout.
//
// Unknown tags are remembered permanently and logged once, so a snapshot
// full of unrecognised categories costs one map lookup per category per
// cycle instead of a log line each. A factory timeout is NOT remembered:
// the tag stays resolvable and the next cycle retries.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Handler
	unknown   map[string]struct{}

	deps    Deps
	logger  Logger
	timeout time.Duration
}

// NewRegistry creates a handler registry with the given shared dependencies.
func NewRegistry(deps Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
		deps.Logger = logger
	}
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Handler),
		unknown:   make(map[string]struct{}),
		deps:      deps,
		logger:    logger,
		timeout:   defaultResolveTimeout,
	}
}

// SetResolveTimeout overrides the factory construction timeout.
// Call before the first Resolve.
func (r *Registry) SetResolveTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Register binds a factory to a category-type tag. Intended for startup;
// returns ErrHandlerExists when the tag (case-insensitively) is taken.
func (r *Registry) Register(tag string, factory Factory) error {
	key := strings.ToLower(tag)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, key)
	}
	r.factories[key] = factory

	// A late registration supersedes an earlier unknown verdict.
	delete(r.unknown, key)

	return nil
}

// Tags returns the registered category-type tags, lower-cased.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	return tags
}

// Resolve returns the handler for a category-type tag, constructing it on
// first use. Returns ErrHandlerNotFound for unknown tags and
// ErrFactoryTimeout when construction overruns the resolve timeout.
func (r *Registry) Resolve(ctx context.Context, tag string) (Handler, error) {
	key := strings.ToLower(tag)

	r.mu.RLock()
	if h, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return h, nil
	}
	if _, ok := r.unknown[key]; ok {
		r.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
	}
	factory, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		r.markUnknown(key)
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
	}

	h, err := r.construct(ctx, key, factory)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Another goroutine may have won the race; keep the first instance.
	if existing, ok := r.instances[key]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.instances[key] = h
	r.mu.Unlock()

	r.logger.Debug("handler constructed", "tag", key)
	return h, nil
}

// markUnknown records a tag with no factory, logging only the first sighting.
func (r *Registry) markUnknown(key string) {
	r.mu.Lock()
	_, seen := r.unknown[key]
	if !seen {
		r.unknown[key] = struct{}{}
	}
	r.mu.Unlock()

	if !seen {
		r.logger.Warn("no handler for category type", "tag", key)
	}
}

// construct runs the factory under the resolve timeout.
func (r *Registry) construct(ctx context.Context, key string, factory Factory) (Handler, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		h   Handler
		err error
	}

	// Buffered so an overrunning factory can still deliver and exit.
	ch := make(chan result, 1)
	go func() {
		h, err := factory(r.deps)
		ch <- result{h: h, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("constructing handler %q: %w", key, res.err)
		}
		return res.h, nil
	case <-ctx.Done():
		r.logger.Warn("handler factory timed out", "tag", key, "timeout", r.timeout.String())
		return nil, fmt.Errorf("%w: %s", ErrFactoryTimeout, key)
	}
}
