package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for entity persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves an entity by its unique identifier.
	// Returns ErrEntityNotFound if the entity does not exist.
	GetByID(ctx context.Context, id string) (*Entity, error)

	// List retrieves all entities.
	List(ctx context.Context) ([]Entity, error)

	// Create inserts a new entity.
	// Returns ErrEntityExists if an entity with the same ID already exists.
	Create(ctx context.Context, entity *Entity) error

	// Update modifies an existing entity.
	// Returns ErrEntityNotFound if the entity does not exist.
	Update(ctx context.Context, entity *Entity) error

	// Delete removes an entity by ID.
	// Returns ErrEntityNotFound if the entity does not exist.
	Delete(ctx context.Context, id string) error

	// UpdateState updates only the state fields of an entity.
	// This is optimised for frequent updates from polling cycles.
	UpdateState(ctx context.Context, id string, state State) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const entityColumns = `id, name, unit_id, category_id, category_type,
		manufacturer, model, serial_number,
		state, state_updated_at, created_at, updated_at`

// GetByID retrieves an entity by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying entity by id: %w", err)
	}
	return entity, nil
}

// List retrieves all entities.
func (r *SQLiteRepository) List(ctx context.Context) ([]Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities ORDER BY unit_id, category_type`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor, close error carries no data loss

	var entities []Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}

	return entities, nil
}

// Create inserts a new entity.
func (r *SQLiteRepository) Create(ctx context.Context, entity *Entity) error {
	stateJSON, err := json.Marshal(entity.State)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	now := time.Now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now

	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.UnitID,
		entity.CategoryID,
		entity.CategoryType,
		entity.Manufacturer,
		entity.Model,
		entity.SerialNumber,
		string(stateJSON),
		nullableTime(entity.StateUpdatedAt),
		entity.CreatedAt.Format(time.RFC3339),
		entity.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEntityExists
		}
		return fmt.Errorf("inserting entity: %w", err)
	}

	return nil
}

// Update modifies an existing entity.
func (r *SQLiteRepository) Update(ctx context.Context, entity *Entity) error {
	stateJSON, err := json.Marshal(entity.State)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	entity.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE entities SET
			name = ?, unit_id = ?, category_id = ?, category_type = ?,
			manufacturer = ?, model = ?, serial_number = ?,
			state = ?, state_updated_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		entity.Name,
		entity.UnitID,
		entity.CategoryID,
		entity.CategoryType,
		entity.Manufacturer,
		entity.Model,
		entity.SerialNumber,
		string(stateJSON),
		nullableTime(entity.StateUpdatedAt),
		entity.UpdatedAt.Format(time.RFC3339),
		entity.ID,
	)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// Delete removes an entity by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// UpdateState updates only the state fields of an entity.
func (r *SQLiteRepository) UpdateState(ctx context.Context, id string, state State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		UPDATE entities SET state = ?, state_updated_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(stateJSON), now, now, id)
	if err != nil {
		return fmt.Errorf("updating entity state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking state update result: %w", err)
	}
	if affected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// scanner abstracts over *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanEntity reads one entity row.
func scanEntity(s scanner) (*Entity, error) {
	var (
		e              Entity
		stateJSON      string
		stateUpdatedAt sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := s.Scan(
		&e.ID,
		&e.Name,
		&e.UnitID,
		&e.CategoryID,
		&e.CategoryType,
		&e.Manufacturer,
		&e.Model,
		&e.SerialNumber,
		&stateJSON,
		&stateUpdatedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stateJSON), &e.State); err != nil {
		return nil, fmt.Errorf("unmarshalling state: %w", err)
	}

	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if stateUpdatedAt.Valid {
		t, err := time.Parse(time.RFC3339, stateUpdatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing state_updated_at: %w", err)
		}
		e.StateUpdatedAt = &t
	}

	return &e, nil
}

// nullableTime converts a *time.Time to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// isUniqueConstraintError detects SQLite unique constraint violations.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
