package analytics

import (
	"fmt"
	"time"

	"issuetriage/internal/classify"
	"issuetriage/internal/domain"
)

// Insights is the narrative layer over a batch of issues: a deterministic
// summary plus threshold-driven findings.
type Insights struct {
	Summary         string
	KeyFindings     []string
	Recommendations []string
	RiskFactors     []string
	Opportunities   []string
	Metrics         InsightMetrics
}

// InsightMetrics is the small snapshot embedded in an Insights result.
type InsightMetrics struct {
	TotalIssues    int
	OpenIssues     int
	ClosedIssues   int
	AverageAgeDays float64
	OldestAgeDays  float64
}

// Thresholds for the findings below. Each fires independently.
const (
	lowResolutionRatePct  = 70.0
	staleAverageAgeDays   = 90.0
	ancientIssueAgeDays   = 365.0
	bugShareThreshold     = 0.5
	featureShareThreshold = 0.4
)

// GenerateInsights turns issues and (optionally) their classifications into
// structured findings and recommendations. An empty classification list
// skips the category-dominance checks.
func GenerateInsights(issues []domain.Issue, classifications []classify.Classification) Insights {
	now := time.Now()

	var open, closed int
	var openAgeSum, oldestAge float64
	for _, issue := range issues {
		if issue.Open() {
			open++
			if !issue.CreatedAt.IsZero() {
				age := now.Sub(issue.CreatedAt).Hours() / 24
				openAgeSum += age
				if age > oldestAge {
					oldestAge = age
				}
			}
		} else {
			closed++
		}
	}
	var avgAge float64
	if open > 0 {
		avgAge = openAgeSum / float64(open)
	}

	metrics := CalculatePerformanceMetrics(issues)

	out := Insights{
		Metrics: InsightMetrics{
			TotalIssues:    len(issues),
			OpenIssues:     open,
			ClosedIssues:   closed,
			AverageAgeDays: avgAge,
			OldestAgeDays:  oldestAge,
		},
	}
	out.Summary = fmt.Sprintf(
		"Analyzed %d issues: %d open, %d closed. Average open-issue age is %.1f days; resolution rate over the last 30 days is %.1f%%.",
		len(issues), open, closed, avgAge, metrics.ResolutionRate,
	)

	if metrics.ResolutionRate < lowResolutionRatePct {
		out.KeyFindings = append(out.KeyFindings,
			fmt.Sprintf("Resolution rate is %.1f%%, below the %.0f%% target.", metrics.ResolutionRate, lowResolutionRatePct))
		out.Recommendations = append(out.Recommendations,
			"Prioritize closing existing issues before taking on new work.")
	}
	if avgAge > staleAverageAgeDays {
		out.RiskFactors = append(out.RiskFactors,
			fmt.Sprintf("Open issues average %.1f days old, past the %.0f-day staleness threshold.", avgAge, staleAverageAgeDays))
		out.Recommendations = append(out.Recommendations,
			"Establish a regular triage cadence to keep the backlog moving.")
	}
	if oldestAge > ancientIssueAgeDays {
		out.RiskFactors = append(out.RiskFactors,
			fmt.Sprintf("The oldest open issue is %.1f days old.", oldestAge))
		out.Recommendations = append(out.Recommendations,
			"Review and close stale issues that are no longer relevant.")
	}

	if len(classifications) > 0 && len(issues) > 0 {
		counts := make(map[classify.Category]int)
		for _, c := range classifications {
			counts[c.PrimaryCategory]++
		}
		var top classify.Category
		topCount := 0
		for cat, n := range counts {
			if n > topCount || (n == topCount && cat < top) {
				top = cat
				topCount = n
			}
		}
		share := float64(topCount) / float64(len(issues))
		switch {
		case top == classify.CategoryBug && share > bugShareThreshold:
			out.RiskFactors = append(out.RiskFactors,
				fmt.Sprintf("Bugs make up %.1f%% of issue volume, indicating a quality risk.", share*100))
			out.Recommendations = append(out.Recommendations,
				"Invest in test coverage and regression testing to reduce the bug inflow.")
		case top == classify.CategoryFeature && share > featureShareThreshold:
			out.Opportunities = append(out.Opportunities,
				fmt.Sprintf("Feature requests make up %.1f%% of issue volume; strong demand signal for roadmap planning.", share*100))
		}
	}

	return out
}
