// Package events defines the message-event contract consumed by the
// conversation segmenter and exposes the two lazy read queries the event
// store must support (§4.B).
package events

import (
	"context"
	"iter"
	"sort"
	"time"
)

// Direction is the flow of a message relative to the agent.
type Direction string

const (
	Incoming Direction = "INCOMING"
	Outgoing Direction = "OUTGOING"
)

// Event is one immutable message event (§3).
type Event struct {
	EventID            string
	MessageID          string
	ChatID             string
	UserID             int64
	OrgID              int64
	AgentPhoneNumber   string
	SenderNumber       string
	Direction          Direction
	MessageTimestamp   time.Time
	IngestionTimestamp time.Time
}

// Reader produces lazy, chronologically sorted event sequences.
type Reader interface {
	// RecentWindow returns events whose ingestion date falls within the
	// last `days` days, sorted by (chat_id, message_timestamp). Used by
	// the daily pipeline.
	RecentWindow(ctx context.Context, days int) (iter.Seq[Event], error)
	// ForUser returns all events for a specified user, sorted the same
	// way. Used by the lifetime/backfill pipeline.
	ForUser(ctx context.Context, userID int64) (iter.Seq[Event], error)
}

// SortKey orders events by (chat_id, message_timestamp); ties are broken by
// event_id for a total order, per the Invariants in §3.
func SortKey(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.ChatID != b.ChatID {
			return a.ChatID < b.ChatID
		}
		if !a.MessageTimestamp.Equal(b.MessageTimestamp) {
			return a.MessageTimestamp.Before(b.MessageTimestamp)
		}
		return a.EventID < b.EventID
	})
}

// LifetimeKey groups events by chat_id for the lifetime pipeline (§4.C, §5).
type LifetimeKey struct {
	ChatID string
}

// DailyKey groups events by (user_id, org_id, chat_id, activity_date) for
// the daily pipeline (§4.C, §5). Date is the civil date in the pipeline's
// configured zone.
type DailyKey struct {
	UserID int64
	OrgID  int64
	ChatID string
	Date   time.Time // truncated to midnight in the pipeline zone
}

// PartitionLifetime groups a sorted event slice by chat_id, preserving
// chronological order within each partition.
func PartitionLifetime(sorted []Event) map[LifetimeKey][]Event {
	out := map[LifetimeKey][]Event{}
	for _, e := range sorted {
		k := LifetimeKey{ChatID: e.ChatID}
		out[k] = append(out[k], e)
	}
	return out
}

// PartitionDaily groups a sorted event slice by (user_id, org_id, chat_id,
// civil date), where the civil date is derived from message_timestamp in
// loc (default UTC per §4.B, unless the pipeline requests a civil zone).
func PartitionDaily(sorted []Event, loc *time.Location) map[DailyKey][]Event {
	if loc == nil {
		loc = time.UTC
	}
	out := map[DailyKey][]Event{}
	for _, e := range sorted {
		ts := e.MessageTimestamp.In(loc)
		y, m, d := ts.Date()
		k := DailyKey{
			UserID: e.UserID,
			OrgID:  e.OrgID,
			ChatID: e.ChatID,
			Date:   time.Date(y, m, d, 0, 0, 0, 0, loc),
		}
		out[k] = append(out[k], e)
	}
	return out
}

// Collect drains a lazy sequence into a sorted slice, applying SortKey.
// Kept small and explicit rather than importing slices.Collect's generic
// machinery for a single call site.
func Collect(seq iter.Seq[Event]) []Event {
	var out []Event
	for e := range seq {
		out = append(out, e)
	}
	SortKey(out)
	return out
}
