package analytics

import (
	"sort"
	"time"

	"issuetriage/internal/domain"
)

// PerformanceMetrics aggregates resolution and throughput statistics over a
// batch of issues.
type PerformanceMetrics struct {
	AverageResolutionHours float64
	MedianResolutionHours  float64
	ResolutionRate         float64 // percent
	AverageResponseHours   float64 // placeholder until comment data is ingested
	ThroughputPerDay       float64
	BacklogSize            int
	BurndownRate           float64
}

const resolutionWindowDays = 30

// CalculatePerformanceMetrics computes resolution-time and throughput
// statistics. Issues without a usable closed timestamp are excluded from
// time-based aggregates rather than zero-filled, but still count toward
// totals and backlog. The trailing-30-day resolution rate falls back to the
// overall closed/total ratio when the window is empty.
func CalculatePerformanceMetrics(issues []domain.Issue) PerformanceMetrics {
	now := time.Now()
	windowStart := now.AddDate(0, 0, -resolutionWindowDays)

	var resolutionHours []float64
	var backlog, closedTotal int
	var openedInWindow, closedInWindow, closedWithinWindow int

	for _, issue := range issues {
		if issue.Open() {
			backlog++
		} else {
			closedTotal++
		}

		if !issue.Open() && validDuration(issue.CreatedAt, issue.ClosedAt) {
			resolutionHours = append(resolutionHours, issue.ClosedAt.Sub(issue.CreatedAt).Hours())
		}

		if !issue.CreatedAt.IsZero() && issue.CreatedAt.After(windowStart) {
			openedInWindow++
			if !issue.Open() {
				closedInWindow++
			}
		}
		if !issue.Open() && !issue.ClosedAt.IsZero() && issue.ClosedAt.After(windowStart) {
			closedWithinWindow++
		}
	}

	var rate float64
	switch {
	case openedInWindow > 0:
		rate = float64(closedInWindow) / float64(openedInWindow) * 100
	case len(issues) > 0:
		rate = float64(closedTotal) / float64(len(issues)) * 100
	}

	throughput := float64(closedWithinWindow) / resolutionWindowDays

	return PerformanceMetrics{
		AverageResolutionHours: mean(resolutionHours),
		MedianResolutionHours:  median(resolutionHours),
		ResolutionRate:         rate,
		ThroughputPerDay:       throughput,
		BacklogSize:            backlog,
		BurndownRate:           throughput,
	}
}

// validDuration rejects missing timestamps and closed-before-created
// anomalies so they never produce negative hours.
func validDuration(created, closed time.Time) bool {
	return !created.IsZero() && !closed.IsZero() && !closed.Before(created)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
