package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"issuetriage/internal/classify"
)

func WriteReportFile(content, outputDir string, reportDate time.Time, teamName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_triage_%s.md", sanitizeFilename(teamName), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(s)
}

// BuildReport renders one triage run as markdown.
func BuildReport(cfg Config, data TriageData, stats ClassificationStats, weekly []WeeklyTrend) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — Issue Triage Report\n\n", cfg.TeamName)
	fmt.Fprintf(&b, "Generated %s over the trailing %d days.\n\n", data.GeneratedAt.Format("2006-01-02 15:04"), cfg.WindowDays)

	if data.Narrative != "" {
		b.WriteString(data.Narrative)
		b.WriteString("\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(data.Insights.Summary)
	b.WriteString("\n\n")

	b.WriteString("## Classification breakdown\n\n")
	writeCountTable(&b, "Category", categoryRows(data.Classifications))
	b.WriteString("\n")
	writeCountTable(&b, "Priority", priorityRows(data.Classifications))
	b.WriteString("\n")

	b.WriteString("## Performance\n\n")
	fmt.Fprintf(&b, "- Average resolution time: %.1f hours\n", data.Metrics.AverageResolutionHours)
	fmt.Fprintf(&b, "- Median resolution time: %.1f hours\n", data.Metrics.MedianResolutionHours)
	fmt.Fprintf(&b, "- Resolution rate (30d): %.1f%%\n", data.Metrics.ResolutionRate)
	fmt.Fprintf(&b, "- Throughput: %.2f issues/day\n", data.Metrics.ThroughputPerDay)
	fmt.Fprintf(&b, "- Backlog: %d open issues\n", data.Metrics.BacklogSize)
	fmt.Fprintf(&b, "- Creation trend: %s (slope %.3f/day, confidence %.2f), next-day estimate %.1f\n\n",
		data.Trend.Direction, data.Trend.Slope, data.Trend.Confidence, data.Trend.NextPeriod)

	writeBulletSection(&b, "Key findings", data.Insights.KeyFindings)
	writeBulletSection(&b, "Risk factors", data.Insights.RiskFactors)
	writeBulletSection(&b, "Opportunities", data.Insights.Opportunities)
	writeBulletSection(&b, "Recommendations", data.Insights.Recommendations)

	if stats.TotalClassifications > 0 {
		b.WriteString("## Classification history\n\n")
		fmt.Fprintf(&b, "- %d classifications recorded, average confidence %.2f\n", stats.TotalClassifications, stats.AvgConfidence)
		fmt.Fprintf(&b, "- Confidence buckets: <0.5: %d, 0.5-0.7: %d, 0.7-0.9: %d, 0.9+: %d\n",
			stats.BucketBelow50, stats.Bucket50to70, stats.Bucket70to90, stats.Bucket90Plus)
		if len(weekly) > 0 {
			b.WriteString("\n| Week | Classified | Avg confidence |\n|---|---|---|\n")
			for _, w := range weekly {
				fmt.Fprintf(&b, "| %s | %d | %.2f |\n", w.WeekStart, w.Classifications, w.AvgConfidence)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

type countRow struct {
	Name  string
	Count int
}

func categoryRows(classifications []classify.Classification) []countRow {
	return sortedRows(func() map[string]int {
		m := make(map[string]int)
		for cat, n := range CategoryCounts(classifications) {
			m[string(cat)] = n
		}
		return m
	}())
}

func priorityRows(classifications []classify.Classification) []countRow {
	return sortedRows(func() map[string]int {
		m := make(map[string]int)
		for p, n := range PriorityCounts(classifications) {
			m[string(p)] = n
		}
		return m
	}())
}

func sortedRows(counts map[string]int) []countRow {
	rows := make([]countRow, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, countRow{Name: name, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func writeCountTable(b *strings.Builder, header string, rows []countRow) {
	if len(rows) == 0 {
		fmt.Fprintf(b, "No %s data.\n", strings.ToLower(header))
		return
	}
	fmt.Fprintf(b, "| %s | Issues |\n|---|---|\n", header)
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %d |\n", r.Name, r.Count)
	}
}

func writeBulletSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// BuildSlackSummary is the short text posted to the report channel.
func BuildSlackSummary(cfg Config, data TriageData, reportPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s triage run* (%s)\n", cfg.TeamName, data.GeneratedAt.Format("Jan 2"))
	fmt.Fprintf(&b, "%s\n", data.Insights.Summary)
	if top := categoryRows(data.Classifications); len(top) > 0 {
		fmt.Fprintf(&b, "Top category: %s (%d issues). ", top[0].Name, top[0].Count)
	}
	fmt.Fprintf(&b, "Issue creation trend: %s.\n", data.Trend.Direction)
	if len(data.Insights.RiskFactors) > 0 {
		fmt.Fprintf(&b, "Risks: %s\n", strings.Join(data.Insights.RiskFactors, " "))
	}
	if reportPath != "" {
		fmt.Fprintf(&b, "Full report: %s", reportPath)
	}
	return b.String()
}
