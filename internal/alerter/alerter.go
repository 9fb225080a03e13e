// Package alerter decides which notifications a run emits. Each condition is
// compared against its activation state from the previous run's snapshot:
// active conditions notify, newly inactive conditions send a recovery, and
// the new snapshot is produced for the caller to persist.
package alerter

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/biblioops/jobwatch/internal/notifier"
	"github.com/biblioops/jobwatch/internal/queue"
	"github.com/biblioops/jobwatch/internal/report"
	"github.com/biblioops/jobwatch/internal/state"
)

// FirePolicy controls when an active condition sends its activate message.
type FirePolicy int

const (
	// FireEveryRun re-sends the activate message on every run while the
	// condition stays active.
	FireEveryRun FirePolicy = iota
	// FireOnTransition sends the activate message only on the run where the
	// condition becomes active.
	FireOnTransition
)

// Thresholds are the per-run limits the conditions compare against.
// A MaxRunningAge of zero disables the stuck-job condition.
type Thresholds struct {
	MaxNewJobs    int
	MaxRate       int
	RateWindow    time.Duration
	MaxRunningAge time.Duration
}

// Condition is one evaluated alert: its snapshot key, current and previous
// activation, and the messages for either direction. Computed fresh per run,
// never persisted.
type Condition struct {
	Key             string
	IsActive        bool
	WasActive       bool
	ActivateMessage string
	RecoverMessage  string
}

// Alerter evaluates the three queue conditions for one run.
type Alerter struct {
	instance   string
	thresholds Thresholds
	policy     FirePolicy
	sink       notifier.Notifier
	log        zerolog.Logger
}

func New(instance string, th Thresholds, sink notifier.Notifier, policy FirePolicy, log zerolog.Logger) *Alerter {
	return &Alerter{
		instance:   instance,
		thresholds: th,
		policy:     policy,
		sink:       sink,
		log:        log,
	}
}

// Evaluate runs the backlog, rate and stuck conditions, in that order,
// against the previous snapshot. It returns whether any condition emitted a
// message and the snapshot to persist; the snapshot is returned
// unconditionally. When anything emitted, a consolidated per-type summary
// message is sent last.
func (a *Alerter) Evaluate(m *queue.Metrics, prev state.Snapshot) (bool, state.Snapshot) {
	next := state.New()
	alerted := false

	for _, c := range a.conditions(m, prev) {
		emit, msg, active := a.apply(c)
		next[c.Key] = active
		if !emit {
			continue
		}
		alerted = true
		a.send(c.Key, msg)
	}

	if alerted && len(m.Summary) > 0 {
		a.send("summary", summaryMessage(a.instance, m.Summary))
	}

	return alerted, next
}

func (a *Alerter) conditions(m *queue.Metrics, prev state.Snapshot) []Condition {
	th := a.thresholds
	return []Condition{
		{
			Key:             state.KeyNewCount,
			IsActive:        m.NewCount > th.MaxNewJobs,
			WasActive:       prev[state.KeyNewCount],
			ActivateMessage: backlogActivate(a.instance, m.NewCount, th.MaxNewJobs),
			RecoverMessage:  backlogRecover(a.instance, m.NewCount),
		},
		{
			Key:             state.KeyRate,
			IsActive:        m.Rate > th.MaxRate,
			WasActive:       prev[state.KeyRate],
			ActivateMessage: rateActivate(a.instance, m.Rate, th.MaxRate, th.RateWindow),
			RecoverMessage:  rateRecover(a.instance, m.Rate, th.RateWindow),
		},
		{
			Key:             state.KeyStuckRunning,
			IsActive:        th.MaxRunningAge > 0 && m.StuckCount > 0,
			WasActive:       prev[state.KeyStuckRunning],
			ActivateMessage: stuckActivate(a.instance, m.Stuck, th.MaxRunningAge),
			RecoverMessage:  stuckRecover(a.instance, th.MaxRunningAge),
		},
	}
}

// apply implements the transition contract for a single condition.
func (a *Alerter) apply(c Condition) (emit bool, msg string, active bool) {
	switch {
	case c.IsActive && (a.policy == FireEveryRun || !c.WasActive):
		return true, c.ActivateMessage, true
	case c.IsActive:
		// active but already notified under FireOnTransition
		return false, "", true
	case c.WasActive:
		return true, c.RecoverMessage, false
	default:
		return false, "", false
	}
}

// send delivers one message. Delivery failure never aborts the run; the next
// scheduled invocation gets another chance.
func (a *Alerter) send(key, msg string) {
	if err := a.sink.Send(msg); err != nil {
		a.log.Warn().Err(err).Str("condition", key).Str("channel", a.sink.Name()).
			Msg("notification delivery failed")
		return
	}
	a.log.Info().Str("condition", key).Str("channel", a.sink.Name()).
		Msg("notification sent")
}

func summaryMessage(instance string, rows []queue.SummaryRow) string {
	return "[" + instance + "] queue summary:\n" + report.SummaryLines(rows)
}
