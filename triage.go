package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	"issuetriage/internal/analytics"
	"issuetriage/internal/classify"
)

// TriageResult tracks what one triage run did, for logging and the Slack
// summary line.
type TriageResult struct {
	Fetched      int
	Classified   int
	Stored       int
	ReportPath   string
	UsedDefaults bool
	Errors       []string
}

// RunTriage is the full pipeline for one run: fetch issues for the analysis
// window, classify them, persist everything, compute analytics, and render
// the report. It has no Slack dependency so it can be called from both the
// -once flag and the scheduler.
func RunTriage(cfg Config, db *sql.DB) (TriageResult, TriageData, error) {
	now := time.Now().In(cfg.Location)
	from, to := AnalysisWindow(now, cfg.WindowDays)
	log.Printf("triage range %s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))

	var result TriageResult

	issues, err := FetchIssues(cfg, from, to)
	if err != nil {
		return result, TriageData{}, fmt.Errorf("fetching issues: %w", err)
	}
	result.Fetched = len(issues)

	classifier, usedDefaults := loadClassifier(cfg)
	result.UsedDefaults = usedDefaults

	var classifications []classify.Classification
	for _, issue := range issues {
		classification, err := classifier.Classify(issue)
		if err != nil {
			log.Printf("triage classify error issue=#%d: %v", issue.Number, err)
			result.Errors = append(result.Errors, fmt.Sprintf("issue #%d: %v", issue.Number, err))
			continue
		}
		classifications = append(classifications, classification)
	}
	result.Classified = len(classifications)

	stored, err := UpsertIssues(db, issues)
	if err != nil {
		return result, TriageData{}, fmt.Errorf("storing issues: %w", err)
	}
	result.Stored = stored
	if err := InsertClassifications(db, classifications); err != nil {
		return result, TriageData{}, fmt.Errorf("storing classifications: %w", err)
	}

	data := TriageData{
		Issues:          issues,
		Classifications: classifications,
		Metrics:         analytics.CalculatePerformanceMetrics(issues),
		Series:          analytics.GenerateTimeSeries(issues, cfg.WindowDays),
		Insights:        analytics.GenerateInsights(issues, classifications),
		GeneratedAt:     now,
	}
	data.Trend = analytics.AnalyzeTrends(data.Series)

	if cfg.LLMConfigured() {
		narrative, err := GenerateNarrative(cfg, data)
		if err != nil {
			log.Printf("triage narrative error: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("narrative: %v", err))
		} else {
			data.Narrative = narrative
		}
	}

	stats, err := GetClassificationStats(db, from)
	if err != nil {
		log.Printf("triage stats error: %v", err)
	}
	weekly, err := GetWeeklyClassificationTrend(db, from)
	if err != nil {
		log.Printf("triage weekly trend error: %v", err)
	}

	report := BuildReport(cfg, data, stats, weekly)
	path, err := WriteReportFile(report, cfg.ReportOutputDir, now, cfg.TeamName)
	if err != nil {
		return result, data, fmt.Errorf("writing report: %w", err)
	}
	result.ReportPath = path
	log.Printf("triage report written path=%s", path)

	return result, data, nil
}

// loadClassifier builds the classifier from rules_path when set and readable,
// falling back to the built-in ruleset otherwise.
func loadClassifier(cfg Config) (*classify.Classifier, bool) {
	if cfg.RulesPath != "" {
		ruleCfg, err := classify.LoadConfig(cfg.RulesPath)
		if err != nil {
			log.Printf("triage rules load error path=%s: %v — using built-in rules", cfg.RulesPath, err)
			return classify.NewClassifier(classify.DefaultConfig()), true
		}
		log.Printf("triage rules loaded path=%s rules=%d version=%s", cfg.RulesPath, len(ruleCfg.Rules), ruleCfg.Version)
		return classify.NewClassifier(ruleCfg), false
	}
	return classify.NewClassifier(classify.DefaultConfig()), true
}

// FormatTriageSummary returns a human-readable summary of a TriageResult.
func FormatTriageSummary(result TriageResult) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d issues fetched", result.Fetched))
	parts = append(parts, fmt.Sprintf("%d classified", result.Classified))
	parts = append(parts, fmt.Sprintf("%d stored", result.Stored))
	msg := "Triage complete: " + strings.Join(parts, ", ")
	if result.UsedDefaults {
		msg += " (built-in rules)"
	}
	msg += "."
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(result.Errors, "\n"))
	}
	return msg
}

// StartTriageScheduler starts a cron-based scheduler that periodically runs
// the triage pipeline and posts the report summary to the report channel.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1" (Mondays 9am).
func StartTriageScheduler(cfg Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.TriageSchedule)
	if schedule == "" {
		log.Println("Scheduled triage disabled (triage_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid triage_schedule '%s': %v — scheduled triage disabled", schedule, err)
		return
	}
	log.Printf("Triage scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next triage at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, data, runErr := RunTriage(cfg, db)
			if runErr != nil {
				log.Printf("Triage error: %v", runErr)
			}
			summary := FormatTriageSummary(result)
			log.Printf("%s", summary)

			if cfg.SlackConfigured() {
				text := summary
				if runErr == nil {
					text = BuildSlackSummary(cfg, data, result.ReportPath)
				}
				if postErr := PostReportSummary(api, cfg.ReportChannelID, text); postErr != nil {
					log.Printf("Triage post error: %v", postErr)
				}
			}
		}
	}()
}
