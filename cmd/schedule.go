package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/config"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/cron"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/store/pg"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// scheduleCmd exposes CLI equivalents of the GET /schedules and
// GET /schedules/{user_id} endpoints for operators without HTTP access.
func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect resolved working-hours schedules",
	}
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleGetCmd())
	return cmd
}

func scheduleListCmd() *cobra.Command {
	var showNext bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective schedule resolved for every bound user",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveAllSchedules()
			if err != nil {
				return err
			}

			if showNext {
				cfg, err := config.Load(resolveConfigPath())
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if cfg.Cron.Expression == "" {
					fmt.Println("next_run: (no cron trigger configured)")
				} else {
					next, err := cron.NextRun(cfg.Cron.Expression, time.Now())
					if err != nil {
						return fmt.Errorf("compute next run: %w", err)
					}
					fmt.Printf("next_run: %s\n", next.Format(time.RFC3339))
				}
			}

			return printJSON(map[string]any{"schedules": resolved})
		},
	}
	cmd.Flags().BoolVar(&showNext, "next", false, "also print the next scheduled recurring run time")
	return cmd
}

func scheduleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user_id>",
		Short: "Show the effective schedule resolved for one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user_id: %w", err)
			}

			resolved, err := resolveAllSchedules()
			if err != nil {
				return err
			}
			for _, res := range resolved {
				if res.Binding.UserID == userID {
					return printJSON(res)
				}
			}
			return fmt.Errorf("no binding for user_id %d", userID)
		},
	}
}

func resolveAllSchedules() ([]workinghours.Resolved, error) {
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
	defer db.Close()

	zone, err := cfg.ScheduleZone()
	if err != nil {
		return nil, fmt.Errorf("resolve schedule timezone: %w", err)
	}

	ctx := context.Background()
	entries, err := pg.NewScheduleStore(db).ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	bindings, err := pg.NewBindingStore(db).ListBindings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}

	resolved, _ := workinghours.ResolveSchedules(slog.Default(), bindings, entries, workinghours.DefaultSchedule(zone), zone)
	return resolved, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
