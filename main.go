package main

import (
	"flag"
	"log"
	"os"

	"github.com/slack-go/slack"
)

func main() {
	once := flag.Bool("once", false, "run one triage pass and exit")
	flag.Parse()

	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	var api *slack.Client
	if cfg.SlackConfigured() {
		api = slack.New(cfg.SlackBotToken)
	}

	if *once {
		result, data, err := RunTriage(cfg, db)
		if err != nil {
			log.Fatalf("Triage error: %v", err)
		}
		log.Printf("%s", FormatTriageSummary(result))
		if cfg.SlackConfigured() {
			if err := PostReportSummary(api, cfg.ReportChannelID, BuildSlackSummary(cfg, data, result.ReportPath)); err != nil {
				log.Printf("Slack post error: %v", err)
			}
		}
		return
	}

	if cfg.TriageSchedule == "" {
		log.Fatalf("No triage_schedule set and -once not given; nothing to do")
	}

	log.Println("Starting Issue Triage Bot...")
	StartTriageScheduler(cfg, db, api)
	select {}
}
