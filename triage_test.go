package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatTriageSummary(t *testing.T) {
	result := TriageResult{Fetched: 12, Classified: 11, Stored: 12}
	got := FormatTriageSummary(result)
	want := "Triage complete: 12 issues fetched, 11 classified, 12 stored."
	if got != want {
		t.Fatalf("FormatTriageSummary = %q, want %q", got, want)
	}
}

func TestFormatTriageSummaryWithWarnings(t *testing.T) {
	result := TriageResult{
		Fetched:      3,
		Classified:   2,
		Stored:       3,
		UsedDefaults: true,
		Errors:       []string{"issue #7: boom"},
	}
	got := FormatTriageSummary(result)
	if !strings.Contains(got, "(built-in rules)") {
		t.Fatalf("expected built-in rules marker, got %q", got)
	}
	if !strings.Contains(got, "Warnings:\nissue #7: boom") {
		t.Fatalf("expected warnings block, got %q", got)
	}
}

func TestLoadClassifierFallsBackToDefaults(t *testing.T) {
	// No rules path configured.
	classifier, usedDefaults := loadClassifier(Config{})
	if !usedDefaults {
		t.Fatal("expected built-in rules without rules_path")
	}
	if len(classifier.Config().Rules) == 0 {
		t.Fatal("expected built-in ruleset to be non-empty")
	}

	// Unreadable rules path falls back rather than failing the run.
	_, usedDefaults = loadClassifier(Config{RulesPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if !usedDefaults {
		t.Fatal("expected fallback to built-in rules for missing file")
	}
}

func TestLoadClassifierReadsRulesFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
version: "2.1"
rules:
  - id: custom-bug
    category: bug
    weight: 0.9
    conditions:
      title_keywords: ["crash"]
`
	if err := os.WriteFile(rulesPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	classifier, usedDefaults := loadClassifier(Config{RulesPath: rulesPath})
	if usedDefaults {
		t.Fatal("expected configured rules to be used")
	}
	cfg := classifier.Config()
	if len(cfg.Rules) != 1 || cfg.Rules[0].ID != "custom-bug" {
		t.Fatalf("unexpected rules: %+v", cfg.Rules)
	}
	if cfg.Version != "2.1" {
		t.Fatalf("unexpected version: %q", cfg.Version)
	}
}
