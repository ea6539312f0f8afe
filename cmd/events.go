package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotauth/internal/formatter"
	"github.com/desertthunder/spotauth/internal/models"
	"github.com/desertthunder/spotauth/internal/repositories"
	"github.com/desertthunder/spotauth/internal/shared"
	"github.com/desertthunder/spotauth/internal/ui"
	"github.com/urfave/cli/v3"
)

// Events prints the most recent audit events.
func (r *Runner) Events(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 1 {
		return fmt.Errorf("%w: --limit must be positive, got %d", shared.ErrInvalidFlag, limit)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := shared.OpenEventDatabase(config.Database)
	if errors.Is(err, shared.ErrEventLogDisabled) {
		return fmt.Errorf("%w: database.path is empty", err)
	} else if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer db.Close()

	repo := repositories.NewEventRepository(db)
	events, err := repo.List(ctx, int(limit))
	if err != nil {
		return err
	}

	if cmd.Bool("json") && cmd.String("output") == "" {
		if events == nil {
			events = []*models.Event{}
		}
		return r.writeJSON(events, true)
	}

	format := cmd.String("format")
	if cmd.Bool("json") {
		format = string(formatter.FormatJSON)
	}
	if output := cmd.String("output"); output != "" && format == "" {
		format = string(formatter.FormatText)
	}

	if format != "" {
		return r.exportEvents(events, format, cmd.String("output"))
	}

	if len(events) == 0 {
		return r.writePlain("%s\n", ui.Warn("No events recorded yet"))
	}

	r.writePlain("%s\n", ui.Title("Authorization events (%d)", len(events)))
	for _, e := range events {
		line := fmt.Sprintf("%s  %-8s  %s  %s",
			e.CreatedAt.Local().Format(time.DateTime), e.Operation, ui.Outcome(string(e.Outcome)), e.RequestID)
		if e.Detail != "" {
			line += "  " + ui.Help("%s", e.Detail)
		}
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}

	counts, err := repo.CountByOutcome(ctx)
	if err != nil {
		return err
	}

	var ok, failed int
	for outcome, n := range counts {
		switch outcome {
		case models.OutcomeOK:
			ok += n
		case models.OutcomeNoop, models.OutcomeInvalid:
		default:
			failed += n
		}
	}
	return r.writePlain("\n%s ok, %s failed\n", ui.OK("%d", ok), ui.Err("%d", failed))
}

// exportEvents renders events with the formatter and writes them to path, or to the output when path is empty.
func (r *Runner) exportEvents(events []*models.Event, format, path string) error {
	f, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}

	if path != "" {
		if err := formatter.WriteExport(events, f, path); err != nil {
			return err
		}
		r.logger.Info("events exported", "format", f, "path", path, "count", len(events))
		return r.writePlain("%s Exported %d events to %s\n", ui.OK("✓"), len(events), path)
	}

	data, err := formatter.Export(events, f)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
