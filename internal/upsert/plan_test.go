package upsert

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/aggregate"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/segment"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleMetrics() aggregate.Metrics {
	ttfr := 300.0
	first := ts("2025-01-06T09:00:00Z")
	return aggregate.Metrics{
		Summary: segment.Summary{
			UserID:              1,
			OrgID:               2,
			ChatID:              "chat-1",
			AgentPhoneNumber:    "agent-number",
			ContactNumber:       "contact-number",
			ConversationStarter: "contact",
			LastMessageFrom:     "employee",
			ContactMessageCount: 3,
			AgentMessageCount:   3,
			UniqueMessages:      6,
			FollowUpCount:       0,
			FirstEventTS:        first,
		},
		AverageResponseTime: 1340,
		TimeToFirstResponse: &ttfr,
	}
}

func TestPlanLifetimeRow_Idempotent(t *testing.T) {
	m := sampleMetrics()
	now := ts("2025-02-01T00:00:00Z")

	p1 := PlanLifetimeRow(m, now)
	p2 := PlanLifetimeRow(m, now)

	if diff := cmp.Diff(p1, p2); diff != "" {
		t.Fatalf("re-planning identical input produced a different plan (-p1 +p2):\n%s", diff)
	}
	if p1.LifetimeKey.UID != 1 || p1.LifetimeKey.OrgID != 2 || p1.LifetimeKey.ChatID != "chat-1" || p1.LifetimeKey.PhoneNumber != "agent-number" {
		t.Fatalf("unexpected lifetime key: %+v", p1.LifetimeKey)
	}
	if !p1.Values.CreatedAt.Equal(m.Summary.FirstEventTS) {
		t.Fatalf("created_at = %v, want conversation start %v", p1.Values.CreatedAt, m.Summary.FirstEventTS)
	}
	if !p1.Values.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at = %v, want run clock %v", p1.Values.UpdatedAt, now)
	}
}

func TestPlanDailyRow_CreatedAtIsRunClock(t *testing.T) {
	m := sampleMetrics()
	day := ts("2025-01-06T00:00:00Z")
	m.Summary.Date = &day
	now := ts("2025-02-01T00:00:00Z")

	p := PlanDailyRow(m, now)
	if !p.Values.CreatedAt.Equal(now) || !p.Values.UpdatedAt.Equal(now) {
		t.Fatalf("daily created/updated at = (%v, %v), want both %v", p.Values.CreatedAt, p.Values.UpdatedAt, now)
	}
	if p.DailyKey.ActivityDate != day {
		t.Fatalf("activity_date = %v, want %v", p.DailyKey.ActivityDate, day)
	}
	if p.DailyKey.UserNumber != "agent-number" {
		t.Fatalf("daily key user_number = %q, want agent's phone number %q (not the contact's)", p.DailyKey.UserNumber, "agent-number")
	}
}

func TestBuildLifetimePlans_Deterministic(t *testing.T) {
	metrics := []aggregate.Metrics{sampleMetrics(), sampleMetrics()}
	now := ts("2025-02-01T00:00:00Z")

	a := BuildLifetimePlans(metrics, now)
	b := BuildLifetimePlans(metrics, now)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("plans differ across runs with identical input (-a +b):\n%s", diff)
	}
}
