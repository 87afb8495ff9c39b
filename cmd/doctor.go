package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"runtime"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/config"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/cron"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upgrade"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("goclaw-analytics doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Orchestrator:")
	fmt.Printf("    %-28s %d\n", "Window days:", cfg.Orchestrator.WindowDays)
	fmt.Printf("    %-28s %s\n", "Schedule timezone:", cfg.Orchestrator.ScheduleTimezone)
	fmt.Printf("    %-28s %v\n", "Strict same-day containment:", cfg.Orchestrator.StrictSameDayContainment)
	if cfg.Cron.Expression != "" {
		if err := cron.ValidateExpression(cfg.Cron.Expression); err != nil {
			fmt.Printf("    %-28s %q (INVALID: %s)\n", "Cron trigger:", cfg.Cron.Expression, err)
		} else {
			fmt.Printf("    %-28s %q\n", "Cron trigger:", cfg.Cron.Expression)
		}
	} else {
		fmt.Printf("    %-28s (disabled, manual/HTTP runs only)\n", "Cron trigger:")
	}

	fmt.Println()
	fmt.Println("  Database:")
	if cfg.Database.PostgresDSN == "" {
		fmt.Printf("    %-12s ANALYTICS_POSTGRES_DSN not set\n", "Status:")
	} else {
		db, dbErr := sql.Open("pgx", cfg.Database.PostgresDSN)
		if dbErr != nil {
			fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", dbErr)
		} else if pingErr := db.Ping(); pingErr != nil {
			fmt.Printf("    %-12s CONNECT FAILED (%s)\n", "Status:", pingErr)
			db.Close()
		} else {
			defer db.Close()
			s, schemaErr := upgrade.CheckSchema(db)
			if schemaErr != nil {
				fmt.Printf("    %-12s CHECK FAILED (%s)\n", "Schema:", schemaErr)
			} else if s.Dirty {
				fmt.Printf("    %-12s v%d (DIRTY — run: goclaw-analytics migrate force %d)\n", "Schema:", s.CurrentVersion, s.CurrentVersion-1)
			} else if s.Compatible {
				fmt.Printf("    %-12s v%d (up to date)\n", "Schema:", s.CurrentVersion)
			} else if s.CurrentVersion > s.RequiredVersion {
				fmt.Printf("    %-12s v%d (binary too old, requires v%d)\n", "Schema:", s.CurrentVersion, s.RequiredVersion)
			} else {
				fmt.Printf("    %-12s v%d (migration needed — run: goclaw-analytics migrate up)\n", "Schema:", s.CurrentVersion)
			}

			pending, hookErr := upgrade.PendingHooks(context.Background(), db)
			if hookErr == nil && len(pending) > 0 {
				fmt.Printf("    %-12s %d pending\n", "Data hooks:", len(pending))
			} else if hookErr == nil {
				fmt.Printf("    %-12s all applied\n", "Data hooks:")
			}
		}
	}

	fmt.Println()
	fmt.Println("  Event store:")
	if cfg.EventStoreDSN() == "" {
		fmt.Printf("    %-12s not set\n", "Status:")
	} else if cfg.EventStore.DSN == "" {
		fmt.Printf("    %-12s sharing main database connection\n", "Status:")
	} else {
		fmt.Printf("    %-12s dedicated DSN configured\n", "Status:")
	}

	fmt.Println()
	fmt.Println("  HTTP:")
	fmt.Printf("    %-12s %s:%d\n", "Listen:", cfg.HTTP.Host, cfg.HTTP.Port)

	fmt.Println()
	fmt.Println("Doctor check complete.")
}
