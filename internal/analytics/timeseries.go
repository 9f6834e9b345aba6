package analytics

import (
	"time"

	"issuetriage/internal/domain"
)

// GenerateTimeSeries buckets issue creation into one point per day over the
// trailing windowDays, zero-filling days with no activity. Points are
// ordered oldest first.
func GenerateTimeSeries(issues []domain.Issue, windowDays int) []TimeSeriesPoint {
	if windowDays <= 0 {
		return nil
	}

	today := time.Now().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(windowDays - 1))

	counts := make(map[time.Time]float64, windowDays)
	for _, issue := range issues {
		if issue.CreatedAt.IsZero() {
			continue
		}
		day := issue.CreatedAt.Truncate(24 * time.Hour)
		if day.Before(start) || day.After(today) {
			continue
		}
		counts[day]++
	}

	points := make([]TimeSeriesPoint, 0, windowDays)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		points = append(points, TimeSeriesPoint{
			Timestamp: day,
			Value:     counts[day],
			Category:  "created",
		})
	}
	return points
}
