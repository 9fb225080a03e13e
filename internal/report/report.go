// Package report renders the type×status job breakdown for humans: compact
// per-type lines for chat messages and an aligned table for the console.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biblioops/jobwatch/internal/queue"
)

// SummaryLines renders one newline-terminated line per job type, types
// ascending, statuses ascending within a type:
//
//	EmailJob: new=12, running=3
//	IndexerJob: new=5
func SummaryLines(rows []queue.SummaryRow) string {
	sorted := sortedRows(rows)

	var b strings.Builder
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Type == sorted[i].Type {
			j++
		}
		pairs := make([]string, 0, j-i)
		for _, r := range sorted[i:j] {
			pairs = append(pairs, fmt.Sprintf("%s=%d", r.Status, r.Count))
		}
		fmt.Fprintf(&b, "%s: %s\n", sorted[i].Type, strings.Join(pairs, ", "))
		i = j
	}
	return b.String()
}

// Table renders the breakdown as an aligned table with a header row; the
// count column is right-justified.
func Table(rows []queue.SummaryRow) string {
	sorted := sortedRows(rows)

	typeW, statusW, countW := len("type"), len("status"), len("count")
	counts := make([]string, len(sorted))
	for i, r := range sorted {
		counts[i] = fmt.Sprintf("%d", r.Count)
		if len(r.Type) > typeW {
			typeW = len(r.Type)
		}
		if len(r.Status) > statusW {
			statusW = len(r.Status)
		}
		if len(counts[i]) > countW {
			countW = len(counts[i])
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-*s  %*s\n", typeW, "type", statusW, "status", countW, "count")
	for i, r := range sorted {
		fmt.Fprintf(&b, "%-*s  %-*s  %*s\n", typeW, r.Type, statusW, r.Status, countW, counts[i])
	}
	return b.String()
}

func sortedRows(rows []queue.SummaryRow) []queue.SummaryRow {
	sorted := make([]queue.SummaryRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].Status < sorted[j].Status
	})
	return sorted
}
