package pg

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
)

// EventStore implements store.EventStore against the message_events
// columnar table (§6), exposing the two required queries of §4.B as lazy
// range-over-func iterators.
type EventStore struct {
	db  *sql.DB
	now func() time.Time // injected for deterministic tests, defaults to time.Now
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db, now: time.Now}
}

const eventCols = `event_id, message_id, chat_id, user_id, org_id, agent_phone_number, sender_number, direction, message_timestamp, ingestion_timestamp`

func scanEvent(rows *sql.Rows) (events.Event, error) {
	var e events.Event
	var direction string
	if err := rows.Scan(
		&e.EventID, &e.MessageID, &e.ChatID, &e.UserID, &e.OrgID,
		&e.AgentPhoneNumber, &e.SenderNumber, &direction,
		&e.MessageTimestamp, &e.IngestionTimestamp,
	); err != nil {
		return events.Event{}, err
	}
	e.Direction = events.Direction(direction)
	return e, nil
}

func rowsToSeq(rows *sql.Rows) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		defer rows.Close()
		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				return
			}
			if !yield(e) {
				return
			}
		}
	}
}

// RecentWindow returns events whose ingestion_timestamp falls within the
// last `days` days, sorted by (chat_id, message_timestamp) (§4.B).
func (s *EventStore) RecentWindow(ctx context.Context, days int) (iter.Seq[events.Event], error) {
	since := s.now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM message_events WHERE ingestion_timestamp >= $1 ORDER BY chat_id, message_timestamp`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent message_events: %w", err)
	}
	return rowsToSeq(rows), nil
}

// ForUser returns all events for userID, sorted by (chat_id,
// message_timestamp) (§4.B).
func (s *EventStore) ForUser(ctx context.Context, userID int64) (iter.Seq[events.Event], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM message_events WHERE user_id = $1 ORDER BY chat_id, message_timestamp`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query message_events for user %d: %w", userID, err)
	}
	return rowsToSeq(rows), nil
}
