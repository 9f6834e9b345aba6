package classify

import (
	"encoding/json"
	"testing"

	"issuetriage/internal/domain"
)

func TestExtractFeaturesNormalizes(t *testing.T) {
	issue := domain.Issue{
		Title: "Fix CRASH in Parser",
		Body:  "Steps To Reproduce:\n1. run\n```go\npanic()\n```\nExpected Behavior: no crash",
		Labels: []domain.Label{
			{Name: "Bug"},
			{Name: "P1-Critical"},
		},
	}

	f := ExtractFeatures(issue)
	if f.Title != "fix crash in parser" {
		t.Fatalf("title not lowercased: %q", f.Title)
	}
	if len(f.Labels) != 2 || f.Labels[0] != "bug" || f.Labels[1] != "p1-critical" {
		t.Fatalf("unexpected labels: %v", f.Labels)
	}
	if !f.Meta.HasCodeBlocks {
		t.Fatal("expected HasCodeBlocks")
	}
	if !f.Meta.HasStepsToReproduce {
		t.Fatal("expected HasStepsToReproduce")
	}
	if !f.Meta.HasExpectedBehavior {
		t.Fatal("expected HasExpectedBehavior")
	}
	if f.Meta.LabelCount != 2 || len(f.Meta.RawLabels) != 2 || f.Meta.RawLabels[0] != "Bug" {
		t.Fatalf("unexpected meta labels: %+v", f.Meta)
	}
}

func TestExtractFeaturesEmptyIssue(t *testing.T) {
	f := ExtractFeatures(domain.Issue{})
	if f.Title != "" || f.Body != "" {
		t.Fatalf("expected empty strings, got title=%q body=%q", f.Title, f.Body)
	}
	if len(f.Labels) != 0 || f.Meta.LabelCount != 0 {
		t.Fatalf("expected no labels, got %v", f.Labels)
	}
	if f.Meta.HasCodeBlocks || f.Meta.HasStepsToReproduce || f.Meta.HasExpectedBehavior {
		t.Fatalf("expected all structure flags false: %+v", f.Meta)
	}
}

func TestLabelAcceptsStringAndObjectForms(t *testing.T) {
	var issue domain.Issue
	payload := []byte(`{"Labels": ["bug", {"name": "security"}]}`)
	if err := json.Unmarshal(payload, &issue); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	names := issue.LabelNames()
	if len(names) != 2 || names[0] != "bug" || names[1] != "security" {
		t.Fatalf("unexpected label names: %v", names)
	}
}
