// Package orchestrator drives one end-to-end analytics run: resolve
// schedules, stream events, segment, aggregate, plan, execute, report
// (§4.G).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/aggregate"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/segment"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/store"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upsert"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// Job is one analytics batch: scoped store handles plus the two knobs the
// orchestrator exposes (§4.G).
type Job struct {
	Logger *slog.Logger

	Schedules  store.ScheduleStore
	Bindings   store.BindingStore
	Events     store.EventStore
	Aggregates store.AggregateStore

	// WindowDays is D, the daily pipeline's ingestion lookback (default 1).
	WindowDays int
	// StrictSameDayContainment gates the same-day compatibility fast path
	// (§4.D, §9 Open Question 1). Exposed to the CLI/HTTP surface as
	// `use_simple` (§6).
	StrictSameDayContainment bool
	// Workers bounds the aggregator's partition fan-out (0 = GOMAXPROCS).
	Workers int
	// Zone is the reference zone schedules without an explicit zone are
	// evaluated in, and the calendar-day boundary used to partition the
	// daily pipeline (§9, ANALYTICS_SCHEDULE_TZ). Nil defaults to UTC.
	Zone *time.Location
	// Now returns the run clock; defaults to time.Now. Overridable for
	// deterministic tests.
	Now func() time.Time
}

// logger returns the job's logger, defaulting to slog.Default().
func (j *Job) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Job) windowDays() int {
	if j.WindowDays <= 0 {
		return 1
	}
	return j.WindowDays
}

func (j *Job) zone() *time.Location {
	if j.Zone != nil {
		return j.Zone
	}
	return time.UTC
}

// asStoreErr classifies a raw store error for withRetry. A store that
// already returns one of the typed errors (e.g. ConfigError for bad
// credentials) is passed through unchanged so it propagates immediately;
// anything else is assumed to be connectivity noise and wrapped as
// TransientIoError so it gets the capped backoff (§7).
func asStoreErr(op string, err error) error {
	switch err.(type) {
	case *TransientIoError, *ConfigError, *DataQualityError, *UpsertConflict, *JobError:
		return err
	default:
		return &TransientIoError{Op: op, Err: err}
	}
}

// Report is returned on a successful run.
type Report struct {
	ResolvedSchedules   int
	PartitionsSeen      int
	LifetimeRowsPlanned int
	DailyRowsPlanned    int
}

// resolveSchedules performs the first pipeline step shared by both
// pipelines: fetch bindings + entries, resolve, index by user_id.
func (j *Job) resolveSchedules(ctx context.Context) (map[int64]workinghours.Schedule, int, error) {
	var entries []workinghours.ScheduleEntry
	var bindings []workinghours.Binding

	err := withRetry(ctx, j.logger(), "fetch_schedules", func() error {
		es, err := j.Schedules.ListEntries(ctx)
		if err != nil {
			return asStoreErr("list working_hours", err)
		}
		entries = es
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	err = withRetry(ctx, j.logger(), "fetch_bindings", func() error {
		bs, err := j.Bindings.ListBindings(ctx)
		if err != nil {
			return asStoreErr("list user_bindings", err)
		}
		bindings = bs
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	resolved, orphans := workinghours.ResolveSchedules(j.logger(), bindings, entries, workinghours.DefaultSchedule(j.zone()), j.zone())
	for _, o := range orphans {
		dqErr := &DataQualityError{
			Row: fmt.Sprintf("working_hours scope=%s scope_id=%d", o.Scope, o.ScopeID),
			Err: fmt.Errorf("scope_id matches no known binding"),
		}
		j.logger().Warn("data quality error resolving schedules", "error", dqErr)
	}

	out := make(map[int64]workinghours.Schedule, len(resolved))
	for _, r := range resolved {
		out[r.Binding.UserID] = r.Schedule
	}
	j.logger().Info("resolved working-hours schedules", "count", len(out), "orphan_rows", len(orphans))
	return out, len(out), nil
}

// RunDaily drives the daily pipeline: recent-window events, partitioned by
// (user_id, org_id, chat_id, date).
func (j *Job) RunDaily(ctx context.Context) (Report, error) {
	schedules, resolvedCount, err := j.resolveSchedules(ctx)
	if err != nil {
		return Report{}, err
	}

	var evs []events.Event
	err = withRetry(ctx, j.logger(), "fetch_events", func() error {
		s, err := j.Events.RecentWindow(ctx, j.windowDays())
		if err != nil {
			return asStoreErr("recent window events", err)
		}
		evs = events.Collect(s)
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	j.logger().Info("fetched events for daily pipeline", "count", len(evs), "window_days", j.windowDays())

	partitions := events.PartitionDaily(evs, j.zone())
	summaries := make([]segment.Summary, 0, len(partitions))
	for key, partEvents := range partitions {
		date := key.Date
		s := segment.Segment(struct {
			UserID int64
			OrgID  int64
			ChatID string
			Date   *time.Time
		}{UserID: key.UserID, OrgID: key.OrgID, ChatID: key.ChatID, Date: &date}, partEvents)
		summaries = append(summaries, s)
	}

	metrics, err := aggregate.AggregateAll(ctx, summaries, aggregate.MapLookup(schedules), workinghours.DefaultSchedule(j.zone()),
		workinghours.Options{StrictSameDayContainment: j.StrictSameDayContainment}, j.Workers)
	if err != nil {
		return Report{}, &JobError{Step: "aggregate", Err: err}
	}

	plans := upsert.BuildDailyPlans(metrics, j.now())
	if err := j.execute(ctx, plans, "daily_performance_summary"); err != nil {
		return Report{}, err
	}

	return Report{
		ResolvedSchedules:   resolvedCount,
		PartitionsSeen:      len(partitions),
		DailyRowsPlanned:    len(plans),
		LifetimeRowsPlanned: 0,
	}, nil
}

// RunLifetime drives the lifetime/backfill pipeline for one user,
// partitioned by chat_id (§4.B per-user backfill query).
func (j *Job) RunLifetime(ctx context.Context, userID int64) (Report, error) {
	schedules, resolvedCount, err := j.resolveSchedules(ctx)
	if err != nil {
		return Report{}, err
	}

	var evs []events.Event
	err = withRetry(ctx, j.logger(), "fetch_events", func() error {
		s, err := j.Events.ForUser(ctx, userID)
		if err != nil {
			return asStoreErr(fmt.Sprintf("events for user %d", userID), err)
		}
		evs = events.Collect(s)
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	j.logger().Info("fetched events for lifetime pipeline", "user_id", userID, "count", len(evs))

	partitions := events.PartitionLifetime(evs)
	summaries := make([]segment.Summary, 0, len(partitions))
	for key, partEvents := range partitions {
		if len(partEvents) == 0 {
			continue
		}
		s := segment.Segment(struct {
			UserID int64
			OrgID  int64
			ChatID string
			Date   *time.Time
		}{UserID: partEvents[0].UserID, OrgID: partEvents[0].OrgID, ChatID: key.ChatID}, partEvents)
		summaries = append(summaries, s)
	}

	metrics, err := aggregate.AggregateAll(ctx, summaries, aggregate.MapLookup(schedules), workinghours.DefaultSchedule(j.zone()),
		workinghours.Options{StrictSameDayContainment: j.StrictSameDayContainment}, j.Workers)
	if err != nil {
		return Report{}, &JobError{Step: "aggregate", Err: err}
	}

	plans := upsert.BuildLifetimePlans(metrics, j.now())
	if err := j.execute(ctx, plans, "conversation_summary"); err != nil {
		return Report{}, err
	}

	return Report{
		ResolvedSchedules:   resolvedCount,
		PartitionsSeen:      len(partitions),
		LifetimeRowsPlanned: len(plans),
	}, nil
}

func (j *Job) execute(ctx context.Context, plans []upsert.Plan, target string) error {
	if len(plans) == 0 {
		return nil
	}
	err := j.Aggregates.Execute(ctx, plans)
	if err != nil {
		return &JobError{Step: "execute_upserts", Err: &UpsertConflict{Target: target, Err: err}}
	}
	j.logger().Info("executed upsert plan", "target", target, "rows", len(plans))
	return nil
}
