// Package aggregate folds response pairs through the working-interval
// calculator and rolls them up per partition (§4.E).
package aggregate

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/segment"
	"github.com/nextlevelbuilder/goclaw-analytics/internal/workinghours"
)

// Metrics is one partition's segmentation summary plus its computed
// response-time analytics.
type Metrics struct {
	Summary segment.Summary

	// AverageResponseTime is the mean working-seconds of all non-zero
	// response pairs; 0 if every pair was entirely outside working hours
	// or there were no pairs at all (§4.E, REDESIGN FLAG 4: the mean
	// excludes zero-valued pairs because they convey no information about
	// agent responsiveness).
	AverageResponseTime float64

	// TimeToFirstResponse is nil unless the conversation has both a first
	// contact message and a later first agent reply (§4.E).
	TimeToFirstResponse *float64
}

// Aggregate computes Metrics for a single partition's Summary against the
// schedule effective for that partition's user.
func Aggregate(summary segment.Summary, sched workinghours.Schedule, opts workinghours.Options) Metrics {
	m := Metrics{Summary: summary}

	var sum float64
	var nonZero int
	for _, pair := range summary.ResponsePairs {
		secs := workinghours.WorkingSeconds(pair.PrevTS, pair.CurTS, sched, opts)
		if secs > 0 {
			sum += secs
			nonZero++
		}
	}
	if nonZero > 0 {
		m.AverageResponseTime = sum / float64(nonZero)
	}

	if summary.FirstContactTS != nil && summary.FirstAgentTS != nil && summary.FirstAgentTS.After(*summary.FirstContactTS) {
		v := workinghours.WorkingSeconds(*summary.FirstContactTS, *summary.FirstAgentTS, sched, opts)
		m.TimeToFirstResponse = &v
	}

	return m
}

// ScheduleLookup resolves the effective schedule for a user, falling back
// to a caller-supplied default if the user has no resolved entry.
type ScheduleLookup interface {
	ScheduleFor(userID int64) (workinghours.Schedule, bool)
}

// MapLookup adapts a plain map to ScheduleLookup.
type MapLookup map[int64]workinghours.Schedule

func (m MapLookup) ScheduleFor(userID int64) (workinghours.Schedule, bool) {
	s, ok := m[userID]
	return s, ok
}

// AggregateAll fans Aggregate out across partitions, bounded by workers
// (0 = GOMAXPROCS). Partitions are independent and commute with respect to
// the final result (§5), so the fan-out may run them in any order.
func AggregateAll(ctx context.Context, summaries []segment.Summary, lookup ScheduleLookup, defaultSchedule workinghours.Schedule, opts workinghours.Options, workers int) ([]Metrics, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Metrics, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for i, summary := range summaries {
		i, summary := i, summary
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			sched := defaultSchedule
			if resolved, ok := lookup.ScheduleFor(summary.UserID); ok {
				sched = resolved
			}
			results[i] = Aggregate(summary, sched, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
