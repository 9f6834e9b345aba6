package analytics

import (
	"strings"
	"testing"
	"time"

	"issuetriage/internal/classify"
	"issuetriage/internal/domain"
)

func TestGenerateInsightsCounts(t *testing.T) {
	now := time.Now()
	issues := []domain.Issue{
		{State: "open", CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{State: "open", CreatedAt: now.Add(-20 * 24 * time.Hour)},
		closedIssue(now.Add(-5*24*time.Hour), 24*time.Hour),
	}

	got := GenerateInsights(issues, nil)
	if got.Metrics.TotalIssues != 3 || got.Metrics.OpenIssues != 2 || got.Metrics.ClosedIssues != 1 {
		t.Fatalf("unexpected counts: %+v", got.Metrics)
	}
	if got.Metrics.AverageAgeDays < 14.9 || got.Metrics.AverageAgeDays > 15.1 {
		t.Fatalf("average age = %v, want ~15", got.Metrics.AverageAgeDays)
	}
	if got.Metrics.OldestAgeDays < 19.9 || got.Metrics.OldestAgeDays > 20.1 {
		t.Fatalf("oldest age = %v, want ~20", got.Metrics.OldestAgeDays)
	}
	if !strings.Contains(got.Summary, "3 issues") || !strings.Contains(got.Summary, "2 open") {
		t.Fatalf("summary missing counts: %q", got.Summary)
	}
}

func TestGenerateInsightsStaleBacklogFindings(t *testing.T) {
	now := time.Now()
	issues := []domain.Issue{
		{State: "open", CreatedAt: now.Add(-400 * 24 * time.Hour)},
		{State: "open", CreatedAt: now.Add(-100 * 24 * time.Hour)},
	}

	got := GenerateInsights(issues, nil)
	if len(got.RiskFactors) < 2 {
		t.Fatalf("expected stale-age and ancient-issue risk factors, got %v", got.RiskFactors)
	}
	if len(got.Recommendations) == 0 {
		t.Fatalf("expected recommendations, got none")
	}
	// No issues opened or closed in the window, overall rate 0 < 70.
	if len(got.KeyFindings) == 0 {
		t.Fatalf("expected low-resolution-rate finding, got none")
	}
}

func TestGenerateInsightsBugDominance(t *testing.T) {
	now := time.Now()
	var issues []domain.Issue
	var cls []classify.Classification
	for i := 0; i < 10; i++ {
		issues = append(issues, domain.Issue{Number: i, State: "open", CreatedAt: now.Add(-24 * time.Hour)})
		cat := classify.CategoryBug
		if i >= 6 {
			cat = classify.CategoryFeature
		}
		cls = append(cls, classify.Classification{IssueNumber: i, PrimaryCategory: cat})
	}

	got := GenerateInsights(issues, cls)
	found := false
	for _, r := range got.RiskFactors {
		if strings.Contains(r, "quality risk") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected bug-dominance quality risk, got %v", got.RiskFactors)
	}
}

func TestGenerateInsightsFeatureDemand(t *testing.T) {
	now := time.Now()
	var issues []domain.Issue
	var cls []classify.Classification
	for i := 0; i < 10; i++ {
		issues = append(issues, domain.Issue{Number: i, State: "open", CreatedAt: now.Add(-24 * time.Hour)})
		cat := classify.CategoryFeature
		if i >= 5 {
			cat = classify.CategoryDocumentation
		}
		if i >= 8 {
			cat = classify.CategoryBug
		}
		cls = append(cls, classify.Classification{IssueNumber: i, PrimaryCategory: cat})
	}

	got := GenerateInsights(issues, cls)
	if len(got.Opportunities) == 0 {
		t.Fatalf("expected roadmap opportunity for feature demand, got none")
	}
}

func TestGenerateInsightsEmpty(t *testing.T) {
	got := GenerateInsights(nil, nil)
	if got.Metrics.TotalIssues != 0 {
		t.Fatalf("unexpected totals: %+v", got.Metrics)
	}
	if got.Summary == "" {
		t.Fatal("summary should still be produced for an empty batch")
	}
}

func TestGenerateTimeSeriesZeroFills(t *testing.T) {
	now := time.Now()
	issues := []domain.Issue{
		{CreatedAt: now.Add(-24 * time.Hour)},
		{CreatedAt: now.Add(-24 * time.Hour)},
		{CreatedAt: now},
		// Outside the window.
		{CreatedAt: now.Add(-90 * 24 * time.Hour)},
		// Unknown creation time: ignored.
		{},
	}

	points := GenerateTimeSeries(issues, 7)
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	var total float64
	for i, p := range points {
		if i > 0 && !points[i-1].Timestamp.Before(p.Timestamp) {
			t.Fatal("points not ordered oldest first")
		}
		total += p.Value
	}
	if total != 3 {
		t.Fatalf("total counted issues = %v, want 3", total)
	}
}

func TestGenerateTimeSeriesBadWindow(t *testing.T) {
	if points := GenerateTimeSeries(nil, 0); points != nil {
		t.Fatalf("expected nil for zero window, got %v", points)
	}
}
