package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vingarzan/homebridge-nibe/internal/entity"
	infra "github.com/vingarzan/homebridge-nibe/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the owner needs.
// Satisfied by *mqtt.Client; tests substitute a fake.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Logger defines the logging interface used by the owner.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Owner publishes the entity set on an MQTT broker.
//
// Each entity gets two retained topics: a config topic describing the
// accessory and a state topic carrying its readings. Retained messages mean
// consumers joining late see the full accessory set without a resync
// protocol; withdrawing an entity clears both retained messages.
//
// Owner implements both the registration and the state-recording side of
// reconciliation.
type Owner struct {
	publisher Publisher
	topics    infra.Topics
	logger    Logger
}

// NewOwner creates an MQTT entity owner over the given publisher.
func NewOwner(publisher Publisher) *Owner {
	return &Owner{
		publisher: publisher,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the owner.
func (o *Owner) SetLogger(logger Logger) {
	if logger != nil {
		o.logger = logger
	}
}

// configPayload is the retained accessory description.
type configPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitID       int    `json:"unit_id"`
	CategoryType string `json:"category_type"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// statePayload is the retained state message.
type statePayload struct {
	State     entity.State `json:"state"`
	UpdatedAt string       `json:"updated_at,omitempty"`
}

// RegisterEntities announces new entities: a retained config message and an
// initial retained state message per entity.
//
// A failed publish is reported but does not stop the batch; the entity is
// re-announced implicitly on the next state change or reconnect.
func (o *Owner) RegisterEntities(ctx context.Context, entities []entity.Entity) error {
	var firstErr error
	for i := range entities {
		e := &entities[i]
		if err := o.publishConfig(e); err != nil {
			o.logger.Error("publishing entity config failed", "id", e.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := o.publishState(e); err != nil {
			o.logger.Error("publishing entity state failed", "id", e.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		o.logger.Debug("entity announced", "id", e.ID, "name", e.Name)
	}
	return firstErr
}

// UnregisterEntities withdraws entities by clearing their retained config
// and state messages.
func (o *Owner) UnregisterEntities(ctx context.Context, entities []entity.Entity) error {
	var firstErr error
	for i := range entities {
		e := &entities[i]
		// An empty retained payload deletes the retained message.
		if err := o.publisher.PublishRetained(o.topics.EntityConfig(e.ID), nil); err != nil {
			o.logger.Error("clearing entity config failed", "id", e.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if err := o.publisher.PublishRetained(o.topics.EntityState(e.ID), nil); err != nil {
			o.logger.Error("clearing entity state failed", "id", e.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		o.logger.Debug("entity withdrawn", "id", e.ID)
	}
	return firstErr
}

// RecordState publishes an entity's current state, retained.
func (o *Owner) RecordState(ctx context.Context, e entity.Entity) error {
	return o.publishState(&e)
}

func (o *Owner) publishConfig(e *entity.Entity) error {
	payload, err := json.Marshal(configPayload{
		ID:           e.ID,
		Name:         e.Name,
		UnitID:       e.UnitID,
		CategoryType: e.CategoryType,
		Manufacturer: e.Manufacturer,
		Model:        e.Model,
		SerialNumber: e.SerialNumber,
	})
	if err != nil {
		return fmt.Errorf("encoding entity config: %w", err)
	}
	return o.publisher.PublishRetained(o.topics.EntityConfig(e.ID), payload)
}

func (o *Owner) publishState(e *entity.Entity) error {
	p := statePayload{State: e.State}
	if e.StateUpdatedAt != nil {
		p.UpdatedAt = e.StateUpdatedAt.UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding entity state: %w", err)
	}
	return o.publisher.PublishRetained(o.topics.EntityState(e.ID), payload)
}
