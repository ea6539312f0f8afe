package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spotauth/internal/models"
	"github.com/desertthunder/spotauth/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Record", func(t *testing.T) {
		repo := NewEventRepository(setupTestDB(t))
		event := models.NewEvent("req-1", models.OperationLogin, models.OutcomeOK, "")

		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}

		if event.ID == "" {
			t.Error("event ID should be set after recording")
		}
	})

	t.Run("Record Keeps Existing ID", func(t *testing.T) {
		repo := NewEventRepository(setupTestDB(t))
		event := models.NewEvent("req-1", models.OperationLogin, models.OutcomeOK, "")
		event.ID = "fixed-id"

		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("failed to record event: %v", err)
		}

		events, err := repo.List(ctx, 1)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 1 || events[0].ID != "fixed-id" {
			t.Errorf("expected stored event with id fixed-id, got %+v", events)
		}
	})

	t.Run("Record Validation Error", func(t *testing.T) {
		repo := NewEventRepository(setupTestDB(t))
		event := models.NewEvent("req-1", models.Operation("logout"), models.OutcomeOK, "")

		err := repo.Record(ctx, event)
		if !errors.Is(err, models.ErrInvalidEvent) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		repo := NewEventRepository(setupTestDB(t))
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		ops := []models.Operation{models.OperationLogin, models.OperationCallback, models.OperationAccess}
		for i, op := range ops {
			event := models.NewEvent("req", op, models.OutcomeOK, "")
			event.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := repo.Record(ctx, event); err != nil {
				t.Fatalf("failed to record event: %v", err)
			}
		}

		events, err := repo.List(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}

		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Operation != models.OperationAccess || events[2].Operation != models.OperationLogin {
			t.Errorf("expected newest first, got %s..%s", events[0].Operation, events[2].Operation)
		}
		if !events[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
			t.Errorf("unexpected timestamp %v", events[0].CreatedAt)
		}

		limited, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected limit to apply, got %d", len(limited))
		}
	})

	t.Run("CountByOutcome", func(t *testing.T) {
		repo := NewEventRepository(setupTestDB(t))

		for _, outcome := range []models.Outcome{models.OutcomeOK, models.OutcomeOK, models.OutcomeStateMismatch} {
			if err := repo.Record(ctx, models.NewEvent("req", models.OperationCallback, outcome, "")); err != nil {
				t.Fatalf("failed to record event: %v", err)
			}
		}

		counts, err := repo.CountByOutcome(ctx)
		if err != nil {
			t.Fatalf("failed to count events: %v", err)
		}
		if counts[models.OutcomeOK] != 2 || counts[models.OutcomeStateMismatch] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("Missing Table", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		exists, err := TableExists(db, "auth_events")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exists {
			t.Error("expected auth_events to be missing before migrations")
		}

		if err := NewEventRepository(db).Record(ctx, models.NewEvent("req", models.OperationLogin, models.OutcomeOK, "")); err == nil {
			t.Error("expected insert to fail without migrations")
		}
	})

	t.Run("TableExists After Migrations", func(t *testing.T) {
		exists, err := TableExists(setupTestDB(t), "auth_events")
		if err != nil || !exists {
			t.Errorf("expected auth_events to exist, got exists=%v err=%v", exists, err)
		}
	})
}
