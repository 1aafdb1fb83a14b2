package querylog

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// Stats summarizes a query log.
type Stats struct {
	Total             int
	CacheHits         int
	Errors            int
	AvgLatencySeconds float64
	ByAction          map[string]int
}

// HitRate returns the fraction of entries served from the cache.
func (s Stats) HitRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Total)
}

// Compute aggregates entries. Average latency covers entries without an error.
func Compute(entries []Entry) Stats {
	stats := Stats{ByAction: make(map[string]int)}
	var latency float64
	timed := 0
	for _, e := range entries {
		stats.Total++
		stats.ByAction[string(e.Action)]++
		if e.CacheHit {
			stats.CacheHits++
		}
		if e.Error != "" {
			stats.Errors++
			continue
		}
		latency += e.LatencySeconds
		timed++
	}
	if timed > 0 {
		stats.AvgLatencySeconds = latency / float64(timed)
	}
	return stats
}

// WriteReport prints stats in a fixed human-readable layout.
func (s Stats) WriteReport(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Total queries:   %d\nCache hits:      %d (%.1f%%)\nErrors:          %d\nAvg latency:     %.3fs\n",
		s.Total, s.CacheHits, s.HitRate()*100, s.Errors, s.AvgLatencySeconds)
	if err != nil {
		return err
	}
	if len(s.ByAction) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "By action:"); err != nil {
		return err
	}
	for _, action := range slices.Sorted(maps.Keys(s.ByAction)) {
		if _, err := fmt.Fprintf(w, "  %-20s %d\n", action, s.ByAction[action]); err != nil {
			return err
		}
	}
	return nil
}
