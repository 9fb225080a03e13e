package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBSource reads metrics from the background_jobs table through database/sql.
// Every query binds its inputs as parameters; time cutoffs are computed here
// and passed as values so the SQL stays portable across MySQL and SQLite.
type DBSource struct {
	db  *sql.DB
	now func() time.Time
}

func NewDBSource(db *sql.DB) *DBSource {
	return &DBSource{db: db, now: time.Now}
}

func (s *DBSource) Collect(ctx context.Context, queue string, rateWindow, maxRunningAge time.Duration) (*Metrics, error) {
	m := &Metrics{}
	now := s.now()

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM background_jobs WHERE queue = ? AND status = 'new'`,
		queue,
	).Scan(&m.NewCount)
	if err != nil {
		return nil, fmt.Errorf("count new jobs: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM background_jobs WHERE queue = ? AND enqueued_on >= ?`,
		queue, now.Add(-rateWindow),
	).Scan(&m.Rate)
	if err != nil {
		return nil, fmt.Errorf("count recently enqueued jobs: %w", err)
	}

	if maxRunningAge > 0 {
		stuck, err := s.collectStuck(ctx, queue, now, maxRunningAge)
		if err != nil {
			return nil, err
		}
		m.Stuck = stuck
		m.StuckCount = len(stuck)
	}

	summary, err := s.collectSummary(ctx, queue)
	if err != nil {
		return nil, err
	}
	m.Summary = summary

	return m, nil
}

func (s *DBSource) collectStuck(ctx context.Context, queue string, now time.Time, maxRunningAge time.Duration) ([]StuckJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, started_on
		   FROM background_jobs
		  WHERE queue = ? AND status = 'running'
		    AND started_on IS NOT NULL AND started_on <= ?
		  ORDER BY started_on`,
		queue, now.Add(-maxRunningAge),
	)
	if err != nil {
		return nil, fmt.Errorf("query stuck jobs: %w", err)
	}
	defer rows.Close()

	var stuck []StuckJob
	for rows.Next() {
		var (
			j       StuckJob
			started time.Time
		)
		if err := rows.Scan(&j.ID, &j.Type, &started); err != nil {
			return nil, fmt.Errorf("scan stuck job: %w", err)
		}
		j.AgeMinutes = int(now.Sub(started).Minutes())
		stuck = append(stuck, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stuck jobs: %w", err)
	}
	return stuck, nil
}

func (s *DBSource) collectSummary(ctx context.Context, queue string) ([]SummaryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, status, COUNT(*)
		   FROM background_jobs
		  WHERE queue = ?
		  GROUP BY type, status
		  ORDER BY type, status`,
		queue,
	)
	if err != nil {
		return nil, fmt.Errorf("query job summary: %w", err)
	}
	defer rows.Close()

	var summary []SummaryRow
	for rows.Next() {
		var r SummaryRow
		if err := rows.Scan(&r.Type, &r.Status, &r.Count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary = append(summary, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job summary: %w", err)
	}
	return summary, nil
}
