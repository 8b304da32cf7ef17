package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

// EventRepository handles event database operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, venue, start_date, end_date, is_active, COALESCE(created_by, ''), created_at, updated_at`

func scanEvent(row scanner) (*models.Event, error) {
	var e models.Event
	var start, end sql.NullTime
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Venue, &start, &end,
		&e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.StartDate = timePtr(start)
	e.EndDate = timePtr(end)
	return &e, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now()
	event.CreatedAt, event.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, name, description, venue, start_date, end_date, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, event.ID, event.Name, event.Description, event.Venue,
		nullTimeOf(event.StartDate), nullTimeOf(event.EndDate), event.IsActive, event.CreatedBy, now)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID returns the event or nil when it does not exist
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// List returns events ordered by start date
func (r *EventRepository) List(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY start_date NULLS LAST, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer closeRows(rows)

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// Update writes the mutable event fields
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET name = $2, description = $3, venue = $4, start_date = $5, end_date = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`, event.ID, event.Name, event.Description, event.Venue,
		nullTimeOf(event.StartDate), nullTimeOf(event.EndDate), event.IsActive, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectAffected(res)
}
