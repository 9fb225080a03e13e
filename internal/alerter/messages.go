package alerter

import (
	"fmt"
	"strings"
	"time"

	"github.com/biblioops/jobwatch/internal/queue"
)

func backlogActivate(instance string, count, max int) string {
	return fmt.Sprintf("[%s] job queue backlog: %d new jobs (threshold %d)", instance, count, max)
}

func backlogRecover(instance string, count int) string {
	return fmt.Sprintf("[%s] job queue backlog recovered: %d new jobs", instance, count)
}

func rateActivate(instance string, rate, max int, window time.Duration) string {
	return fmt.Sprintf("[%s] job creation rate high: %d jobs in the last %d minutes (threshold %d)",
		instance, rate, minutes(window), max)
}

func rateRecover(instance string, rate int, window time.Duration) string {
	return fmt.Sprintf("[%s] job creation rate recovered: %d jobs in the last %d minutes",
		instance, rate, minutes(window))
}

func stuckActivate(instance string, stuck []queue.StuckJob, maxAge time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] jobs running longer than %d minutes:", instance, minutes(maxAge))
	for _, j := range stuck {
		fmt.Fprintf(&b, "\n  job %d (%s) running for %d minutes", j.ID, j.Type, j.AgeMinutes)
	}
	return b.String()
}

func stuckRecover(instance string, maxAge time.Duration) string {
	return fmt.Sprintf("[%s] no more jobs running longer than %d minutes", instance, minutes(maxAge))
}

func minutes(d time.Duration) int {
	return int(d.Minutes())
}
