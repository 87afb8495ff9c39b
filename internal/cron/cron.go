// Package cron validates the orchestrator's recurring-run trigger
// expression and computes its next fire time. It is independent of
// WindowDays (the lookback size, §4.G) — the two knobs are orthogonal: one
// says how often to run, the other how far back each run looks.
package cron

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ValidateExpression reports whether expr is a syntactically valid 5-field
// cron expression. An empty expression is valid and means "no recurring
// trigger" (manual/HTTP runs only).
func ValidateExpression(expr string) error {
	if expr == "" {
		return nil
	}
	if !gronx.IsValid(expr) {
		return fmt.Errorf("invalid cron expression %q", expr)
	}
	return nil
}

// NextRun returns the next fire time strictly after ref for expr.
func NextRun(expr string, ref time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, ref, false)
}
