// Package upsert builds the deterministic MATCH/NOT MATCHED plan that
// idempotently merges computed rows into the aggregate tables (§4.F).
package upsert

import (
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/aggregate"
)

// Target names the aggregate table a plan row merges into.
type Target string

const (
	TargetLifetime Target = "conversation_summary"
	TargetDaily    Target = "daily_performance_summary"
)

// LifetimeKey is the key of a conversation_summary row (§4.F).
type LifetimeKey struct {
	UID         int64
	OrgID       int64
	ChatID      string
	PhoneNumber string
}

// DailyKey is the key of a daily_performance_summary row (§4.F).
type DailyKey struct {
	ActivityDate time.Time
	UserID       int64
	OrgID        int64
	ContactID    string
	UserNumber   string
}

// Values are the analytics columns merged into either target.
type Values struct {
	ConversationStarter string
	LastMessageFrom     string
	ContactMessageCount int
	AgentMessageCount   int
	UniqueMessages      int
	FollowUpCount       int
	AverageResponseTime float64
	TimeToFirstResponse *float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Plan is one row's deterministic merge instruction. The policy is fixed
// and identical for every row of a given target: on MATCHED, overwrite
// every field in Values except CreatedAt and reset UpdatedAt; on NOT
// MATCHED, insert the row as-is, CreatedAt included. Re-planning identical
// inputs always yields a byte-identical Plan (§8 property 5).
type Plan struct {
	Target      Target
	LifetimeKey *LifetimeKey // set iff Target == TargetLifetime
	DailyKey    *DailyKey    // set iff Target == TargetDaily
	Values      Values
}

// PlanLifetimeRow builds the conversation_summary merge plan for one
// lifetime-pipeline partition. CreatedAt is the conversation's first
// message timestamp (§4.F: "created_at set to the conversation start");
// UpdatedAt is the caller-supplied run clock.
func PlanLifetimeRow(m aggregate.Metrics, now time.Time) Plan {
	s := m.Summary
	return Plan{
		Target: TargetLifetime,
		LifetimeKey: &LifetimeKey{
			UID:         s.UserID,
			OrgID:       s.OrgID,
			ChatID:      s.ChatID,
			PhoneNumber: s.AgentPhoneNumber,
		},
		Values: valuesFrom(m, s.FirstEventTS, now),
	}
}

// PlanDailyRow builds the daily_performance_summary merge plan for one
// daily-pipeline partition. CreatedAt is the run clock, per §4.F.
func PlanDailyRow(m aggregate.Metrics, now time.Time) Plan {
	s := m.Summary
	var activityDate time.Time
	if s.Date != nil {
		activityDate = *s.Date
	}
	return Plan{
		Target: TargetDaily,
		DailyKey: &DailyKey{
			ActivityDate: activityDate,
			UserID:       s.UserID,
			OrgID:        s.OrgID,
			ContactID:    s.ChatID,
			UserNumber:   s.AgentPhoneNumber,
		},
		Values: valuesFrom(m, now, now),
	}
}

func valuesFrom(m aggregate.Metrics, createdAt, updatedAt time.Time) Values {
	s := m.Summary
	return Values{
		ConversationStarter: s.ConversationStarter,
		LastMessageFrom:     s.LastMessageFrom,
		ContactMessageCount: s.ContactMessageCount,
		AgentMessageCount:   s.AgentMessageCount,
		UniqueMessages:      s.UniqueMessages,
		FollowUpCount:       s.FollowUpCount,
		AverageResponseTime: m.AverageResponseTime,
		TimeToFirstResponse: m.TimeToFirstResponse,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}
}

// BuildLifetimePlans plans every lifetime-pipeline partition's row.
func BuildLifetimePlans(metrics []aggregate.Metrics, now time.Time) []Plan {
	plans := make([]Plan, len(metrics))
	for i, m := range metrics {
		plans[i] = PlanLifetimeRow(m, now)
	}
	return plans
}

// BuildDailyPlans plans every daily-pipeline partition's row.
func BuildDailyPlans(metrics []aggregate.Metrics, now time.Time) []Plan {
	plans := make([]Plan, len(metrics))
	for i, m := range metrics {
		plans[i] = PlanDailyRow(m, now)
	}
	return plans
}
