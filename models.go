package main

import (
	"time"

	"issuetriage/internal/analytics"
	"issuetriage/internal/classify"
	"issuetriage/internal/domain"
)

// TriageData is everything one triage run computed, handed to the report
// renderer and the Slack poster.
type TriageData struct {
	Issues          []domain.Issue
	Classifications []classify.Classification
	Metrics         analytics.PerformanceMetrics
	Trend           analytics.TrendAnalysis
	Insights        analytics.Insights
	Series          []analytics.TimeSeriesPoint
	Narrative       string // optional LLM-written intro, empty when disabled
	GeneratedAt     time.Time
}

// AnalysisWindow returns the trailing windowDays range ending at now,
// aligned to midnight so consecutive runs see stable buckets.
func AnalysisWindow(now time.Time, windowDays int) (time.Time, time.Time) {
	if windowDays < 1 {
		windowDays = 1
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return end.AddDate(0, 0, -windowDays), end
}

// CategoryCounts tallies primary categories over a batch of classifications.
func CategoryCounts(classifications []classify.Classification) map[classify.Category]int {
	counts := make(map[classify.Category]int)
	for _, c := range classifications {
		counts[c.PrimaryCategory]++
	}
	return counts
}

// PriorityCounts tallies estimated priorities over a batch of classifications.
func PriorityCounts(classifications []classify.Classification) map[classify.Priority]int {
	counts := make(map[classify.Priority]int)
	for _, c := range classifications {
		counts[c.Priority]++
	}
	return counts
}
