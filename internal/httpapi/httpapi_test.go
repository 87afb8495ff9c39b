package httpapi

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/orchestrator"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/upsert"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

type fakeScheduleStore struct {
	entries []workinghours.ScheduleEntry
}

func (f *fakeScheduleStore) ListEntries(ctx context.Context) ([]workinghours.ScheduleEntry, error) {
	return f.entries, nil
}

type fakeBindingStore struct {
	bindings []workinghours.Binding
}

func (f *fakeBindingStore) ListBindings(ctx context.Context) ([]workinghours.Binding, error) {
	return f.bindings, nil
}

type fakeEventStore struct{}

func (f *fakeEventStore) RecentWindow(ctx context.Context, days int) (iter.Seq[events.Event], error) {
	return func(yield func(events.Event) bool) {}, nil
}

func (f *fakeEventStore) ForUser(ctx context.Context, userID int64) (iter.Seq[events.Event], error) {
	return func(yield func(events.Event) bool) {}, nil
}

type fakeAggregateStore struct{}

func (f *fakeAggregateStore) Execute(ctx context.Context, plans []upsert.Plan) error { return nil }

func newTestHandler() (*Handler, *fakeScheduleStore, *fakeBindingStore) {
	schedules := &fakeScheduleStore{}
	bindings := &fakeBindingStore{bindings: []workinghours.Binding{{UserID: 14024, OrgID: 2, TeamID: 9}}}
	h := &Handler{
		Schedules: schedules,
		Bindings:  bindings,
		JobFactory: func(strict bool) *orchestrator.Job {
			return &orchestrator.Job{
				Schedules:                schedules,
				Bindings:                 bindings,
				Events:                   &fakeEventStore{},
				Aggregates:               &fakeAggregateStore{},
				Now:                      func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) },
				StrictSameDayContainment: strict,
			}
		},
	}
	return h, schedules, bindings
}

func TestHandleGetSchedule_Found(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/schedules/14024", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resolved workinghours.Resolved
	if err := json.NewDecoder(rec.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resolved.Binding.UserID != 14024 {
		t.Fatalf("expected user_id 14024, got %d", resolved.Binding.UserID)
	}
	if resolved.Provenance != workinghours.ProvenanceDefault {
		t.Fatalf("expected default provenance, got %q", resolved.Provenance)
	}
}

func TestHandleGetSchedule_NotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/schedules/99999", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetSchedule_InvalidUserID(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/schedules/not-a-number", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListSchedules(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/schedules", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "14024") {
		t.Fatalf("expected body to mention user 14024, got %s", rec.Body.String())
	}
}

func TestHandleCreateJob_InvalidJSON(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("POST", "/jobs", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCreateJob_DailyRunNoEvents(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("POST", "/jobs", strings.NewReader(`{"use_simple":true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report orchestrator.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.DailyRowsPlanned != 0 {
		t.Fatalf("expected 0 rows planned with no events, got %d", report.DailyRowsPlanned)
	}
}

func TestHandleCreateJob_LifetimeRunByUserID(t *testing.T) {
	h, _, _ := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("POST", "/jobs", strings.NewReader(`{"user_id":14024,"org_id":2}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
