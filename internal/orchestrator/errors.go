package orchestrator

import "fmt"

// ConfigError is fatal at job start: missing credentials, malformed
// schedule times that prevent even starting (§7).
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransientIoError wraps a store-connectivity failure that is retried with
// capped exponential backoff before being surfaced as a JobError (§7).
type TransientIoError struct {
	Op  string
	Err error
}

func (e *TransientIoError) Error() string {
	return fmt.Sprintf("transient io error during %s: %v", e.Op, e.Err)
}

func (e *TransientIoError) Unwrap() error { return e.Err }

// DataQualityError is contained inside the affected row — logged, row
// skipped, never aborts the job (§7).
type DataQualityError struct {
	Row string
	Err error
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality error in row %s: %v", e.Row, e.Err)
}

func (e *DataQualityError) Unwrap() error { return e.Err }

// UpsertConflict is fatal: rejected by the store, no partial commit is
// acceptable mid-batch (§7).
type UpsertConflict struct {
	Target string
	Err    error
}

func (e *UpsertConflict) Error() string {
	return fmt.Sprintf("upsert conflict on %s: %v", e.Target, e.Err)
}

func (e *UpsertConflict) Unwrap() error { return e.Err }

// JobError is the top-level failure reported to the orchestrator's caller
// after retries are exhausted or a fatal error propagates (§7).
type JobError struct {
	Step string
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job failed at %s: %v", e.Step, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }
