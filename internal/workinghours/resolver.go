package workinghours

import (
	"log/slog"
	"time"
)

// Scope is the priority tier a schedule entry applies to.
type Scope string

const (
	ScopeSelf Scope = "self"
	ScopeTeam Scope = "team"
	ScopeOrg  Scope = "org"
)

// Provenance records which scope an effective schedule was resolved from.
type Provenance string

const (
	ProvenanceSelf    Provenance = "self"
	ProvenanceTeam    Provenance = "team"
	ProvenanceOrg     Provenance = "org"
	ProvenanceDefault Provenance = "default"
)

// ScheduleEntry is one row of the working_hours table (§3).
type ScheduleEntry struct {
	Scope   Scope
	ScopeID int64
	Weekday Weekday
	Start   string // raw "HH:MM:SS", parsed lazily so a malformed row never aborts the batch
	End     string
}

// Binding is a (user, org, team) principal (§3 User binding).
type Binding struct {
	UserID int64
	OrgID  int64
	TeamID int64
}

// Resolved is the effective schedule for one principal plus its provenance.
type Resolved struct {
	Binding    Binding
	Schedule   Schedule
	Provenance Provenance
}

// ResolveSchedules selects, for every deduplicated binding, the effective
// schedule by the self > team > org > default priority (§4.A). The first
// binding encountered for a given user_id wins; later duplicates are
// ignored (Contract).
//
// Malformed entries (unparseable start or end time, or an out-of-range
// weekday) mark only that weekday absent; they never drop the whole scope
// or abort the run. Each malformed row is logged once at Warn. A row whose
// end time is earlier than its start time is not malformed: it is kept as
// an overnight window that wraps into the following day.
//
// A working_hours row whose scope_id matches no binding's user/team/org id
// is a data-quality defect, not a malformed row (§7 DataQualityError): it is
// logged at Warn and reported back in the second return value so a caller
// that wants the typed error can raise one per orphan. zone is the
// reference zone applied to schedules built from entries; nil defaults to
// UTC.
func ResolveSchedules(logger *slog.Logger, bindings []Binding, entries []ScheduleEntry, defaultSchedule Schedule, zone *time.Location) ([]Resolved, []OrphanEntry) {
	if logger == nil {
		logger = slog.Default()
	}
	if zone == nil {
		zone = time.UTC
	}

	selfEntries := map[int64][]ScheduleEntry{}
	teamEntries := map[int64][]ScheduleEntry{}
	orgEntries := map[int64][]ScheduleEntry{}
	for _, e := range entries {
		switch e.Scope {
		case ScopeSelf:
			selfEntries[e.ScopeID] = append(selfEntries[e.ScopeID], e)
		case ScopeTeam:
			teamEntries[e.ScopeID] = append(teamEntries[e.ScopeID], e)
		case ScopeOrg:
			orgEntries[e.ScopeID] = append(orgEntries[e.ScopeID], e)
		default:
			logger.Warn("working_hours row has unknown scope, skipped", "scope", e.Scope, "scope_id", e.ScopeID)
		}
	}

	knownUserIDs := map[int64]bool{}
	knownTeamIDs := map[int64]bool{}
	knownOrgIDs := map[int64]bool{}
	for _, b := range bindings {
		knownUserIDs[b.UserID] = true
		knownTeamIDs[b.TeamID] = true
		knownOrgIDs[b.OrgID] = true
	}

	var orphans []OrphanEntry
	collectOrphans := func(scope Scope, byScopeID map[int64][]ScheduleEntry, known map[int64]bool) {
		for scopeID := range byScopeID {
			if known[scopeID] {
				continue
			}
			orphans = append(orphans, OrphanEntry{Scope: scope, ScopeID: scopeID})
			logger.Warn("working_hours row scope_id matches no principal, skipped", "scope", scope, "scope_id", scopeID)
		}
	}
	collectOrphans(ScopeSelf, selfEntries, knownUserIDs)
	collectOrphans(ScopeTeam, teamEntries, knownTeamIDs)
	collectOrphans(ScopeOrg, orgEntries, knownOrgIDs)

	seen := map[int64]bool{}
	out := make([]Resolved, 0, len(bindings))
	for _, b := range bindings {
		if seen[b.UserID] {
			continue
		}
		seen[b.UserID] = true

		if rows, ok := selfEntries[b.UserID]; ok && len(rows) > 0 {
			out = append(out, Resolved{Binding: b, Schedule: buildSchedule(logger, rows, zone), Provenance: ProvenanceSelf})
			continue
		}
		if rows, ok := teamEntries[b.TeamID]; ok && len(rows) > 0 {
			out = append(out, Resolved{Binding: b, Schedule: buildSchedule(logger, rows, zone), Provenance: ProvenanceTeam})
			continue
		}
		if rows, ok := orgEntries[b.OrgID]; ok && len(rows) > 0 {
			out = append(out, Resolved{Binding: b, Schedule: buildSchedule(logger, rows, zone), Provenance: ProvenanceOrg})
			continue
		}
		out = append(out, Resolved{Binding: b, Schedule: defaultSchedule, Provenance: ProvenanceDefault})
	}
	return out, orphans
}

// OrphanEntry is a (scope, scope_id) pair from working_hours that matched no
// binding's user/team/org id (§7 DataQualityError). Several rows sharing the
// same orphan pair are reported once.
type OrphanEntry struct {
	Scope   Scope
	ScopeID int64
}

// buildSchedule parses a scope's rows into an effective weekly schedule,
// marking days with unparseable times or an out-of-range weekday absent
// rather than aborting. End < Start is kept as an overnight window.
func buildSchedule(logger *slog.Logger, rows []ScheduleEntry, zone *time.Location) Schedule {
	sched := Schedule{Zone: zone}
	for _, e := range rows {
		start, err := ParseClock(e.Start)
		if err != nil {
			logger.Warn("working_hours row has unparseable start time, weekday marked absent",
				"scope", e.Scope, "scope_id", e.ScopeID, "weekday", e.Weekday, "start", e.Start)
			continue
		}
		end, err := ParseClock(e.End)
		if err != nil {
			logger.Warn("working_hours row has unparseable end time, weekday marked absent",
				"scope", e.Scope, "scope_id", e.ScopeID, "weekday", e.Weekday, "end", e.End)
			continue
		}
		if e.Weekday < Monday || e.Weekday > Sunday {
			logger.Warn("working_hours row has out-of-range weekday, skipped",
				"scope", e.Scope, "scope_id", e.ScopeID, "weekday", e.Weekday)
			continue
		}
		w := Window{Start: start, End: end}
		sched.Windows[e.Weekday] = &w
	}
	return sched
}
