// Package store declares the narrow repository contracts the analytics
// core consumes from the schedule store, the event store, and the
// aggregate tables (§6). These are external collaborators (§2): the core
// only depends on these interfaces, never on a concrete driver.
package store

import (
	"context"
	"iter"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upsert"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// ScheduleStore reads the working_hours table: a full scan, since the
// schedule set is small (§6).
type ScheduleStore interface {
	ListEntries(ctx context.Context) ([]workinghours.ScheduleEntry, error)
}

// BindingStore reads the user binding table: a full scan (§6).
type BindingStore interface {
	ListBindings(ctx context.Context) ([]workinghours.Binding, error)
}

// EventStore is the message_events columnar table contract (§6), exposing
// the two required queries named in §4.B.
type EventStore interface {
	RecentWindow(ctx context.Context, days int) (iter.Seq[events.Event], error)
	ForUser(ctx context.Context, userID int64) (iter.Seq[events.Event], error)
}

// AggregateStore submits upsert plans to conversation_summary and
// daily_performance_summary (§6). It is the narrowed surface of
// upsert.Executor that a concrete store backs.
type AggregateStore interface {
	upsert.Executor
}
