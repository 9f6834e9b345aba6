package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GitHubToken string   `yaml:"github_token"`
	GitHubOrg   string   `yaml:"github_org"`
	GitHubRepos []string `yaml:"github_repos"`

	RulesPath       string `yaml:"rules_path"`
	DBPath          string `yaml:"db_path"`
	ReportOutputDir string `yaml:"report_output_dir"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMModel        string `yaml:"llm_model"`

	TriageSchedule string `yaml:"triage_schedule"`
	WindowDays     int    `yaml:"window_days"`
	TeamName       string `yaml:"team_name"`
	Timezone       string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.GitHubToken, "GITHUB_TOKEN")
	envOverride(&cfg.GitHubOrg, "GITHUB_ORG")
	envOverride(&cfg.RulesPath, "RULES_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.TriageSchedule, "TRIAGE_SCHEDULE")
	envOverrideInt(&cfg.WindowDays, "WINDOW_DAYS")
	envOverride(&cfg.TeamName, "TEAM_NAME")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if repos := os.Getenv("GITHUB_REPOS"); repos != "" {
		cfg.GitHubRepos = nil
		for _, repo := range strings.Split(repos, ",") {
			repo = strings.TrimSpace(repo)
			if repo != "" {
				cfg.GitHubRepos = append(cfg.GitHubRepos, repo)
			}
		}
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./issuetriage.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 30
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "My Team"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	if cfg.GitHubToken == "" {
		log.Fatalf("Required config 'github_token' is not set (via config.yaml or env var)")
	}
	if cfg.GitHubOrg == "" && len(cfg.GitHubRepos) == 0 {
		log.Fatalf("Either 'github_org' or 'github_repos' must be set")
	}
	if cfg.SlackBotToken != "" && cfg.ReportChannelID == "" {
		log.Fatalf("'report_channel_id' is required when slack_bot_token is set")
	}
	if cfg.WindowDays < 1 {
		log.Fatalf("invalid window_days '%d': must be >= 1", cfg.WindowDays)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func (c Config) LLMConfigured() bool {
	return c.AnthropicAPIKey != ""
}
