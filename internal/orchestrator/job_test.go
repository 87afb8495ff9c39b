package orchestrator

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upsert"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

type fakeScheduleStore struct {
	entries []workinghours.ScheduleEntry
	err     error
}

func (f *fakeScheduleStore) ListEntries(ctx context.Context) ([]workinghours.ScheduleEntry, error) {
	return f.entries, f.err
}

type fakeBindingStore struct {
	bindings []workinghours.Binding
	err      error
}

func (f *fakeBindingStore) ListBindings(ctx context.Context) ([]workinghours.Binding, error) {
	return f.bindings, f.err
}

type fakeEventStore struct {
	recent []events.Event
	byUser map[int64][]events.Event
	err    error
}

func (f *fakeEventStore) RecentWindow(ctx context.Context, days int) (iter.Seq[events.Event], error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(yield func(events.Event) bool) {
		for _, e := range f.recent {
			if !yield(e) {
				return
			}
		}
	}, nil
}

func (f *fakeEventStore) ForUser(ctx context.Context, userID int64) (iter.Seq[events.Event], error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(yield func(events.Event) bool) {
		for _, e := range f.byUser[userID] {
			if !yield(e) {
				return
			}
		}
	}, nil
}

type fakeAggregateStore struct {
	executed []upsert.Plan
	err      error
}

func (f *fakeAggregateStore) Execute(ctx context.Context, plans []upsert.Plan) error {
	if f.err != nil {
		return f.err
	}
	f.executed = append(f.executed, plans...)
	return nil
}

func baseJob() (*Job, *fakeEventStore, *fakeAggregateStore) {
	evStore := &fakeEventStore{byUser: map[int64][]events.Event{}}
	aggStore := &fakeAggregateStore{}
	j := &Job{
		Schedules:  &fakeScheduleStore{},
		Bindings:   &fakeBindingStore{},
		Events:     evStore,
		Aggregates: aggStore,
		WindowDays: 1,
		Now:        func() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) },
	}
	return j, evStore, aggStore
}

func TestRunDaily_EndToEnd(t *testing.T) {
	j, evStore, aggStore := baseJob()

	day := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	evStore.recent = []events.Event{
		{EventID: "1", MessageID: "m1", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Incoming, SenderNumber: "+1", MessageTimestamp: day.Add(9 * time.Hour)},
		{EventID: "2", MessageID: "m2", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Outgoing, AgentPhoneNumber: "+2", MessageTimestamp: day.Add(9*time.Hour + 5*time.Minute)},
	}

	report, err := j.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("RunDaily: %v", err)
	}
	if report.PartitionsSeen != 1 {
		t.Fatalf("expected 1 partition, got %d", report.PartitionsSeen)
	}
	if report.DailyRowsPlanned != 1 {
		t.Fatalf("expected 1 planned row, got %d", report.DailyRowsPlanned)
	}
	if len(aggStore.executed) != 1 {
		t.Fatalf("expected 1 executed plan, got %d", len(aggStore.executed))
	}
	if aggStore.executed[0].Target != upsert.TargetDaily {
		t.Fatalf("expected daily target, got %v", aggStore.executed[0].Target)
	}
}

func TestRunLifetime_EndToEnd(t *testing.T) {
	j, evStore, aggStore := baseJob()

	base := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	evStore.byUser[14024] = []events.Event{
		{EventID: "1", MessageID: "m1", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Incoming, SenderNumber: "+1", MessageTimestamp: base},
		{EventID: "2", MessageID: "m2", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Outgoing, AgentPhoneNumber: "+2", MessageTimestamp: base.Add(5 * time.Minute)},
	}

	report, err := j.RunLifetime(context.Background(), 14024)
	if err != nil {
		t.Fatalf("RunLifetime: %v", err)
	}
	if report.LifetimeRowsPlanned != 1 {
		t.Fatalf("expected 1 planned row, got %d", report.LifetimeRowsPlanned)
	}
	if len(aggStore.executed) != 1 || aggStore.executed[0].Target != upsert.TargetLifetime {
		t.Fatalf("expected 1 executed lifetime plan, got %+v", aggStore.executed)
	}
}

func TestRunDaily_NoEvents_NoExecuteCall(t *testing.T) {
	j, _, aggStore := baseJob()

	report, err := j.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("RunDaily: %v", err)
	}
	if report.DailyRowsPlanned != 0 {
		t.Fatalf("expected 0 rows, got %d", report.DailyRowsPlanned)
	}
	if len(aggStore.executed) != 0 {
		t.Fatalf("expected no execute call on empty plans, got %d", len(aggStore.executed))
	}
}

func TestRunDaily_TransientFetchErrorWrapsAsJobError(t *testing.T) {
	j, _, _ := baseJob()
	j.Schedules = &fakeScheduleStore{err: &TransientIoError{Op: "list working_hours", Err: context.DeadlineExceeded}}

	_, err := j.RunDaily(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	jobErr, ok := err.(*JobError)
	if !ok {
		t.Fatalf("expected *JobError after retry exhaustion, got %T: %v", err, err)
	}
	if jobErr.Step != "fetch_schedules" {
		t.Fatalf("expected step fetch_schedules, got %q", jobErr.Step)
	}
}

func TestRunDaily_NonTransientFetchErrorPropagatesImmediately(t *testing.T) {
	j, _, _ := baseJob()
	wantErr := &ConfigError{Msg: "bad dsn"}
	j.Schedules = &fakeScheduleStore{err: wantErr}

	_, err := j.RunDaily(context.Background())
	if err != wantErr {
		t.Fatalf("expected immediate non-retried propagation, got %v", err)
	}
}

func TestExecute_UpsertFailureWrapsAsUpsertConflict(t *testing.T) {
	j, evStore, aggStore := baseJob()
	aggStore.err = context.DeadlineExceeded

	day := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	evStore.recent = []events.Event{
		{EventID: "1", MessageID: "m1", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Incoming, MessageTimestamp: day.Add(9 * time.Hour)},
		{EventID: "2", MessageID: "m2", ChatID: "c1", UserID: 14024, OrgID: 2, Direction: events.Outgoing, MessageTimestamp: day.Add(9*time.Hour + 5*time.Minute)},
	}

	_, err := j.RunDaily(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	jobErr, ok := err.(*JobError)
	if !ok {
		t.Fatalf("expected *JobError, got %T", err)
	}
	if _, ok := jobErr.Err.(*UpsertConflict); !ok {
		t.Fatalf("expected wrapped *UpsertConflict, got %T", jobErr.Err)
	}
}
