package reconcile

import (
	"context"
	"fmt"

	"github.com/vingarzan/homebridge-nibe/internal/entity"
	"github.com/vingarzan/homebridge-nibe/internal/handler"
	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

// Logger defines the logging interface used by this package.
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

// Owner publishes and withdraws entities on an external surface (an MQTT
// broker, a HomeKit bridge). Owners see whole batches so they can group
// their announcements per pass.
type Owner interface {
	RegisterEntities(ctx context.Context, entities []entity.Entity) error
	UnregisterEntities(ctx context.Context, entities []entity.Entity) error
}

// Recorder receives the state of every created or changed entity once per
// pass, for state publication and history.
type Recorder interface {
	RecordState(ctx context.Context, e entity.Entity) error
}

// Result summarises one reconciliation pass.
type Result struct {
	// Created counts entities seen for the first time.
	Created int
	// Updated counts existing entities whose handler reported a change.
	Updated int
	// Retired counts entities whose source pair vanished from the snapshot.
	Retired int
	// Skipped counts category occurrences with no handler or no parameters.
	Skipped int
}

// Engine runs the reconciliation algorithm: diff one snapshot against the
// entity registry, creating, updating and retiring entities so the registry
// converges on exactly the pairs the snapshot contains.
//
// Engine methods are not safe for concurrent use; the Coordinator
// serialises passes.
type Engine struct {
	registry  *entity.Registry
	handlers  *handler.Registry
	owners    []Owner
	recorders []Recorder
	logger    Logger
}

// NewEngine creates an engine over the given registries.
func NewEngine(registry *entity.Registry, handlers *handler.Registry) *Engine {
	return &Engine{
		registry: registry,
		handlers: handlers,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// AddOwner attaches an entity owner. Call before the first pass.
func (e *Engine) AddOwner(o Owner) {
	e.owners = append(e.owners, o)
}

// AddRecorder attaches a state recorder. Call before the first pass.
func (e *Engine) AddRecorder(r Recorder) {
	e.recorders = append(e.recorders, r)
}

// Reconcile runs one full pass over a snapshot.
//
// The pass fails as a whole only for an invalid snapshot. A handler error
// or panic is contained to its category occurrence: the occurrence is
// counted as seen (so an existing entity is not retired over a transient
// handler fault) and the pass continues.
//
// Running the same snapshot twice yields Created=0, Updated=0, Retired=0 on
// the second pass: the algorithm is idempotent.
func (e *Engine) Reconcile(ctx context.Context, snap *uplink.Snapshot) (Result, error) {
	var res Result

	if snap == nil || snap.Units == nil {
		return res, ErrInvalidSnapshot
	}

	desc := uplink.ExtractDescriptor(snap)
	seen := make(map[string]bool)
	var created []entity.Entity

	for _, unit := range snap.Units {
		for _, cat := range unit.Categories {
			if cat.ID == "" || !cat.HasParameters() {
				res.Skipped++
				continue
			}
			e.reconcileCategory(ctx, unit, cat, desc, seen, &res, &created)
		}
	}

	if len(created) > 0 {
		e.registerCreated(ctx, created)
	}

	res.Retired = e.retireVanished(ctx, seen)

	e.logger.Info("reconciliation pass complete",
		"system_id", snap.SystemID,
		"created", res.Created,
		"updated", res.Updated,
		"retired", res.Retired,
		"skipped", res.Skipped)

	return res, nil
}

// reconcileCategory processes one category occurrence.
func (e *Engine) reconcileCategory(
	ctx context.Context,
	unit uplink.Unit,
	cat uplink.Category,
	desc uplink.Descriptor,
	seen map[string]bool,
	res *Result,
	created *[]entity.Entity,
) {
	h, err := e.handlers.Resolve(ctx, cat.ID)
	if err != nil {
		// No handler: the occurrence is not converted. It is also not
		// marked seen, so a handler removed between runs retires its
		// entities on the next pass.
		res.Skipped++
		return
	}

	id := entity.Identity(unit.UnitID, cat.ID)

	if !e.registry.Has(id) {
		e.createEntity(ctx, h, unit, cat, desc, id, seen, res, created)
		return
	}

	// The entity exists; a failure from here on must not retire it.
	seen[id] = true

	existing, err := e.registry.Get(ctx, id)
	if err != nil {
		e.logger.Error("loading entity for update failed",
			"id", id, "category", cat.ID, "error", err)
		return
	}

	changed, err := e.safeUpdate(h, existing, unit, cat)
	if err != nil {
		e.logger.Error("handler update failed",
			"id", id, "category", cat.ID, "error", err)
		return
	}
	if !changed {
		return
	}

	if err := e.registry.Update(ctx, existing); err != nil {
		e.logger.Error("persisting entity update failed", "id", id, "error", err)
		return
	}
	res.Updated++
	e.record(ctx, *existing)
}

// createEntity builds, persists and announces a first-seen pair.
func (e *Engine) createEntity(
	ctx context.Context,
	h handler.Handler,
	unit uplink.Unit,
	cat uplink.Category,
	desc uplink.Descriptor,
	id string,
	seen map[string]bool,
	res *Result,
	created *[]entity.Entity,
) {
	built, err := e.safeBuild(h, unit, cat, desc)
	if err != nil {
		e.logger.Error("handler build failed",
			"id", id, "category", cat.ID, "error", err)
		return
	}
	if built.ID != id {
		// Handlers must not invent identities; the deterministic one stands.
		e.logger.Warn("handler returned unexpected identity, overriding",
			"category", cat.ID, "got", built.ID, "want", id)
		built.ID = id
	}

	if err := e.registry.Create(ctx, built); err != nil {
		e.logger.Error("persisting new entity failed", "id", id, "error", err)
		return
	}

	seen[id] = true
	res.Created++
	*created = append(*created, *built.DeepCopy())
	e.record(ctx, *built)
}

// registerCreated announces this pass's new entities to every owner.
func (e *Engine) registerCreated(ctx context.Context, created []entity.Entity) {
	for _, o := range e.owners {
		if err := o.RegisterEntities(ctx, created); err != nil {
			e.logger.Error("registering entities with owner failed",
				"count", len(created), "error", err)
		}
	}
}

// retireVanished removes entities whose source pair was absent from the
// snapshot, withdrawing them from every owner first.
func (e *Engine) retireVanished(ctx context.Context, seen map[string]bool) int {
	var vanished []entity.Entity
	for _, id := range e.registry.IDs() {
		if seen[id] {
			continue
		}
		ent, err := e.registry.Get(ctx, id)
		if err != nil {
			e.logger.Error("loading entity for retirement failed", "id", id, "error", err)
			continue
		}
		vanished = append(vanished, *ent)
	}

	if len(vanished) == 0 {
		return 0
	}

	for _, o := range e.owners {
		if err := o.UnregisterEntities(ctx, vanished); err != nil {
			e.logger.Error("unregistering entities from owner failed",
				"count", len(vanished), "error", err)
		}
	}

	retired := 0
	for _, ent := range vanished {
		if err := e.registry.Delete(ctx, ent.ID); err != nil {
			e.logger.Error("deleting retired entity failed", "id", ent.ID, "error", err)
			continue
		}
		retired++
	}
	return retired
}

// record hands an entity's state to every recorder.
func (e *Engine) record(ctx context.Context, ent entity.Entity) {
	for _, r := range e.recorders {
		if err := r.RecordState(ctx, ent); err != nil {
			e.logger.Warn("recording entity state failed", "id", ent.ID, "error", err)
		}
	}
}

// safeBuild invokes Handler.Build with panic containment.
func (e *Engine) safeBuild(h handler.Handler, unit uplink.Unit, cat uplink.Category, desc uplink.Descriptor) (ent *entity.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			ent = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Build(unit, cat, desc)
}

// safeUpdate invokes Handler.Update with panic containment.
func (e *Engine) safeUpdate(h handler.Handler, ent *entity.Entity, unit uplink.Unit, cat uplink.Category) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Update(ent, unit, cat)
}
