package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/config"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/orchestrator"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/store/pg"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upgrade"
)

// runCmd exposes one-shot CLI triggers equivalent to POST /jobs, for cron-less
// deployments (e.g. an external scheduler invoking the binary directly).
func runCmd() *cobra.Command {
	var useSimple bool
	var userID int64

	cmd := &cobra.Command{
		Use:   "run [daily|lifetime]",
		Short: "Run a daily or lifetime aggregation job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := buildJob(useSimple)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var report orchestrator.Report

			switch args[0] {
			case "daily":
				report, err = job.RunDaily(ctx)
			case "lifetime":
				if userID == 0 {
					return fmt.Errorf("--user-id is required for a lifetime run")
				}
				report, err = job.RunLifetime(ctx, userID)
			default:
				return fmt.Errorf("unknown run kind %q (want daily or lifetime)", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Printf("resolved_schedules=%d partitions_seen=%d lifetime_rows_planned=%d daily_rows_planned=%d\n",
				report.ResolvedSchedules, report.PartitionsSeen, report.LifetimeRowsPlanned, report.DailyRowsPlanned)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useSimple, "use-simple", false, "compatibility mode: a same-day interval that crosses a working-window boundary counts as zero instead of being clipped")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "target user for a lifetime run")
	return cmd
}

// buildJob loads config, opens the store connections, and assembles a runnable
// *orchestrator.Job — the same wiring serve uses for its job factory.
func buildJob(strictSameDayContainment bool) (*orchestrator.Job, error) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := pg.OpenDB(cfg.Database.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if status, err := upgrade.CheckSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("check schema: %w", err)
	} else if !status.Compatible {
		db.Close()
		return nil, fmt.Errorf("%s", upgrade.FormatError(status))
	}

	eventDB := db
	if cfg.EventStore.DSN != "" && cfg.EventStore.DSN != cfg.Database.PostgresDSN {
		eventDB, err = pg.OpenDB(cfg.EventStore.DSN)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect event store: %w", err)
		}
	}

	zone, err := cfg.ScheduleZone()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resolve schedule timezone: %w", err)
	}

	return &orchestrator.Job{
		Logger:                   slog.Default(),
		Schedules:                pg.NewScheduleStore(db),
		Bindings:                 pg.NewBindingStore(db),
		Events:                   pg.NewEventStore(eventDB),
		Aggregates:               pg.NewAggregateStore(db),
		WindowDays:               cfg.Orchestrator.WindowDays,
		StrictSameDayContainment: strictSameDayContainment,
		Workers:                  cfg.Orchestrator.Workers,
		Zone:                     zone,
	}, nil
}
