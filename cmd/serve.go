package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/config"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/cron"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/httpapi"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/orchestrator"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/store/pg"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upgrade"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and recurring-run scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// runServe wires Postgres-backed stores, the orchestrator job factory, the
// HTTP surface, and (if configured) the recurring cron trigger, then blocks
// until SIGINT/SIGTERM.
func runServe() error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	db, err := pg.OpenDB(cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	if status, err := upgrade.CheckSchema(db); err != nil {
		slog.Error("schema check failed", "error", err)
		return err
	} else if !status.Compatible {
		msg := upgrade.FormatError(status)
		slog.Error("database schema incompatible", "detail", msg)
		return fmt.Errorf("schema incompatible: v%d, requires v%d", status.CurrentVersion, status.RequiredVersion)
	}

	eventDB := db
	if cfg.EventStore.DSN != "" && cfg.EventStore.DSN != cfg.Database.PostgresDSN {
		eventDB, err = pg.OpenDB(cfg.EventStore.DSN)
		if err != nil {
			slog.Error("failed to connect to event store", "error", err)
			return err
		}
		defer eventDB.Close()
	}

	schedules := pg.NewScheduleStore(db)
	bindings := pg.NewBindingStore(db)
	events := pg.NewEventStore(eventDB)
	aggregates := pg.NewAggregateStore(db)

	zone, err := cfg.ScheduleZone()
	if err != nil {
		slog.Error("failed to resolve schedule timezone", "error", err)
		return err
	}

	jobFactory := func(strictSameDayContainment bool) *orchestrator.Job {
		return &orchestrator.Job{
			Logger:                   slog.Default(),
			Schedules:                schedules,
			Bindings:                 bindings,
			Events:                   events,
			Aggregates:               aggregates,
			WindowDays:               cfg.Orchestrator.WindowDays,
			StrictSameDayContainment: strictSameDayContainment,
			Workers:                  cfg.Orchestrator.Workers,
			Zone:                     zone,
		}
	}

	handler := &httpapi.Handler{
		Logger:     slog.Default(),
		Schedules:  schedules,
		Bindings:   bindings,
		Zone:       zone,
		JobFactory: jobFactory,
	}
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Cron.Expression != "" {
		go runCronTrigger(ctx, cfg.Cron.Expression, jobFactory(cfg.Orchestrator.StrictSameDayContainment))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown initiated", "signal", sig)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("goclaw-analytics serve starting", "version", Version, "addr", addr,
		"window_days", cfg.Orchestrator.WindowDays, "cron", cfg.Cron.Expression, "schedule_zone", zone)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return err
	}
	return nil
}

// runCronTrigger fires job.RunDaily on every tick of expr until ctx is
// cancelled. The lookback window (WindowDays) is independent of how often
// the trigger fires (§5/§6): a daily cron with a 3-day window simply
// re-aggregates overlapping partitions, which upsert makes idempotent.
func runCronTrigger(ctx context.Context, expr string, job *orchestrator.Job) {
	for {
		next, err := cron.NextRun(expr, time.Now())
		if err != nil {
			slog.Error("cron trigger disabled: invalid expression", "expression", expr, "error", err)
			return
		}
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		report, err := job.RunDaily(ctx)
		if err != nil {
			slog.Error("scheduled daily run failed", "error", err)
			continue
		}
		slog.Info("scheduled daily run complete",
			"resolved_schedules", report.ResolvedSchedules,
			"partitions_seen", report.PartitionsSeen,
			"daily_rows_planned", report.DailyRowsPlanned,
		)
	}
}
