package entity

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides entity management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating CRUD operations. Reconciliation passes read and
// write through the registry exclusively, never the repository directly.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Entity // Cached entities by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new entity registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Entity),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all entities from the repository into the cache.
// This should be called on application startup, before the first
// reconciliation pass, so identities survive restarts.
func (r *Registry) RefreshCache(ctx context.Context) error {
	entities, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading entities: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with deep copies
	r.cache = make(map[string]*Entity, len(entities))
	for i := range entities {
		e := entities[i]
		r.cache[e.ID] = e.DeepCopy()
	}

	r.logger.Info("entity cache refreshed", "count", len(entities))
	return nil
}

// Get retrieves an entity by ID.
// Returns ErrEntityNotFound if the entity does not exist.
// The returned entity is a deep copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Entity, error) {
	// Try cache first
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		// Return a deep copy to prevent external mutation of cache
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be a new entity not yet cached)
	entity, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cache for future lookups (store a deep copy)
	r.cacheMu.Lock()
	r.cache[id] = entity.DeepCopy()
	r.cacheMu.Unlock()

	return entity, nil
}

// Has reports whether an entity with the given ID is currently cached.
// Unlike Get it never touches the repository, so it is safe to call on
// the reconciliation hot path.
func (r *Registry) Has(id string) bool {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	_, ok := r.cache[id]
	return ok
}

// List retrieves all entities.
// The returned entities are deep copies; callers can safely modify them.
func (r *Registry) List(ctx context.Context) ([]Entity, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	// Return from cache if populated
	if len(r.cache) > 0 {
		entities := make([]Entity, 0, len(r.cache))
		for _, e := range r.cache {
			// Deep copy to prevent external mutation of cache
			entities = append(entities, *e.DeepCopy())
		}
		return entities, nil
	}

	// Fall back to repository
	return r.repo.List(ctx)
}

// IDs returns the IDs of all cached entities. The reconciler uses this to
// find entities whose source pair vanished from the latest snapshot.
func (r *Registry) IDs() []string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids
}

// Create validates and persists a new entity.
func (r *Registry) Create(ctx context.Context, entity *Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, entity); err != nil {
		return err
	}

	// Update cache (store a deep copy to prevent external modification)
	r.cacheMu.Lock()
	r.cache[entity.ID] = entity.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("entity created", "id", entity.ID, "name", entity.Name)
	return nil
}

// Update validates and persists changes to an existing entity.
func (r *Registry) Update(ctx context.Context, entity *Entity) error {
	if err := entity.Validate(); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, entity); err != nil {
		return err
	}

	// Update cache (store a deep copy to prevent external modification)
	r.cacheMu.Lock()
	r.cache[entity.ID] = entity.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Debug("entity updated", "id", entity.ID, "name", entity.Name)
	return nil
}

// Delete removes an entity.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Update cache
	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	r.logger.Info("entity deleted", "id", id)
	return nil
}

// SetState updates the state of an entity.
// This is optimised for frequent updates from polling cycles.
func (r *Registry) SetState(ctx context.Context, id string, state State) error {
	if err := r.repo.UpdateState(ctx, id, state); err != nil {
		return err
	}

	// Update cache using deep copy to prevent race conditions
	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		// Create a deep copy with updated state (atomic replacement)
		updated := cached.DeepCopy()
		updated.State = deepCopyMap(state)
		now := time.Now().UTC()
		updated.StateUpdatedAt = &now
		r.cache[id] = updated
	}
	r.cacheMu.Unlock()

	r.logger.Debug("entity state updated", "id", id)
	return nil
}

// Count returns the number of cached entities.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
