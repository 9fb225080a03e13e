// Package queue reads health metrics from the background job table of a
// library system: backlog size, recent creation rate, stuck running jobs and
// a per-type/status breakdown.
package queue

import (
	"context"
	"time"
)

// SummaryRow is one cell of the type×status breakdown.
type SummaryRow struct {
	Type   string
	Status string
	Count  int
}

// StuckJob describes a running job whose age exceeds the configured limit.
type StuckJob struct {
	ID         int64
	Type       string
	AgeMinutes int
}

// Metrics holds everything one evaluation pass needs, computed fresh per run.
type Metrics struct {
	NewCount   int
	Rate       int
	StuckCount int
	Summary    []SummaryRow
	Stuck      []StuckJob
}

// Source produces current queue metrics. rateWindow bounds the creation-rate
// count; maxRunningAge of zero disables stuck-job detection entirely.
// Implementations must report zero counts, not an error, when nothing
// matches.
type Source interface {
	Collect(ctx context.Context, queue string, rateWindow, maxRunningAge time.Duration) (*Metrics, error)
}
