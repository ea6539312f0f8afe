package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotauth/internal/models"
	"github.com/desertthunder/spotauth/internal/shared"
)

const defaultListLimit = 50

// EventRepository persists [models.Event] audit records.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new [EventRepository] with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record inserts an event, assigning it an ID when it has none.
func (r *EventRepository) Record(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = shared.GenerateID()
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO auth_events (id, request_id, operation, outcome, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.RequestID, string(event.Operation), string(event.Outcome), event.Detail, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// List returns at most limit events, newest first. A non-positive limit uses the default of 50.
func (r *EventRepository) List(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, request_id, operation, outcome, detail, created_at
		FROM auth_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			e         models.Event
			operation string
			outcome   string
			createdAt time.Time
		)

		if err := rows.Scan(&e.ID, &e.RequestID, &operation, &outcome, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.Operation = models.Operation(operation)
		e.Outcome = models.Outcome(outcome)
		e.CreatedAt = createdAt
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// CountByOutcome returns the number of events per outcome.
func (r *EventRepository) CountByOutcome(ctx context.Context) (map[models.Outcome]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM auth_events GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}

	return counts, rows.Err()
}
