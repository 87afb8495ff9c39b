package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// ScheduleStore implements store.ScheduleStore against the working_hours
// table (§6).
type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const scheduleEntryCols = `scope, scope_id, weekday, start_time_utc, end_time_utc`

// ListEntries performs a full scan of working_hours — the schedule set is
// small enough that a full table scan is the simplest correct query (§6).
func (s *ScheduleStore) ListEntries(ctx context.Context) ([]workinghours.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scheduleEntryCols+` FROM working_hours`)
	if err != nil {
		return nil, fmt.Errorf("list working_hours: %w", err)
	}
	defer rows.Close()

	var out []workinghours.ScheduleEntry
	for rows.Next() {
		var e workinghours.ScheduleEntry
		var scopeID int64
		var weekday int
		if err := rows.Scan(&e.Scope, &scopeID, &weekday, &e.Start, &e.End); err != nil {
			return nil, fmt.Errorf("scan working_hours row: %w", err)
		}
		e.ScopeID = scopeID
		e.Weekday = workinghours.Weekday(weekday)
		out = append(out, e)
	}
	return out, rows.Err()
}
