package classify

import (
	"reflect"
	"testing"

	"issuetriage/internal/domain"
)

func TestClassifyBugScenario(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{
		Number: 101,
		Title:  "Fix bug in authentication",
		Body:   "There is a bug in the login flow, it shows error messages on valid credentials.",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.PrimaryCategory != CategoryBug {
		t.Fatalf("primary = %s, want bug (result: %+v)", result.PrimaryCategory, result.Categories)
	}
	if result.PrimaryConfidence <= 0.5 {
		t.Fatalf("primary confidence = %v, want > 0.5", result.PrimaryConfidence)
	}
	if result.Priority != PriorityHigh {
		t.Fatalf("priority = %s, want high", result.Priority)
	}
}

func TestClassifySecurityScenario(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{
		Number: 102,
		Title:  "Security vulnerability in user authentication",
		Body:   "This security issue allows unauthorized access to user accounts.",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.PrimaryCategory != CategorySecurity {
		t.Fatalf("primary = %s, want security", result.PrimaryCategory)
	}
	if result.PrimaryConfidence <= 0.8 {
		t.Fatalf("primary confidence = %v, want > 0.8", result.PrimaryConfidence)
	}
	if result.Priority != PriorityCritical {
		t.Fatalf("priority = %s, want critical", result.Priority)
	}
}

func TestClassifyFallbackOnEmptyIssue(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{Number: 103})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.PrimaryCategory != CategoryQuestion {
		t.Fatalf("primary = %s, want question fallback", result.PrimaryCategory)
	}
	if result.PrimaryConfidence >= 0.7 {
		t.Fatalf("fallback confidence = %v, want < 0.7", result.PrimaryConfidence)
	}
}

func TestClassifyFallbackBelowMinConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.99
	c := NewClassifier(cfg)

	result, err := c.Classify(domain.Issue{
		Number: 104,
		Title:  "Fix bug in authentication",
		Body:   "bug with error messages",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.PrimaryCategory != CategoryQuestion || result.PrimaryConfidence != 0.3 {
		t.Fatalf("expected question/0.3 fallback, got %s/%v", result.PrimaryCategory, result.PrimaryConfidence)
	}
	if len(result.Categories) == 0 {
		t.Fatal("category list should keep the below-threshold matches")
	}
}

func TestClassifySortedAndUnique(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{
		Number: 105,
		Title:  "Improve slow error handling and add docs",
		Body:   "The error path is slow, performance suffers. Also the documentation is missing.",
		Labels: []domain.Label{{Name: "performance"}, {Name: "documentation"}},
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(result.Categories) == 0 {
		t.Fatal("expected at least one category")
	}
	seen := make(map[Category]bool)
	for i, cs := range result.Categories {
		if seen[cs.Category] {
			t.Fatalf("duplicate category %s", cs.Category)
		}
		seen[cs.Category] = true
		if i > 0 && result.Categories[i-1].Confidence < cs.Confidence {
			t.Fatalf("categories not sorted descending at %d: %v", i, result.Categories)
		}
		if cs.Confidence < 0 || cs.Confidence > 1 {
			t.Fatalf("confidence %v outside [0,1]", cs.Confidence)
		}
	}
	if max := c.Config().MaxCategories; len(result.Categories) > max {
		t.Fatalf("got %d categories, cap is %d", len(result.Categories), max)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	issue := domain.Issue{
		Number: 106,
		Title:  "Crash when parsing large files",
		Body:   "Steps to reproduce: open a 2GB file. The process crashes with an error.",
		Labels: []domain.Label{{Name: "bug"}},
	}

	first, err := c.Classify(issue)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	second, err := c.Classify(issue)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	first.ProcessingTime = 0
	second.ProcessingTime = 0
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassifyPriorityLabelEscalation(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{
		Number: 107,
		Title:  "Documentation typo in readme",
		Body:   "The readme documentation has a typo.",
		Labels: []domain.Label{{Name: "priority/P0"}},
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Priority != PriorityCritical {
		t.Fatalf("priority = %s, want critical from P0 label", result.Priority)
	}
}

func TestClassifyCriticalKeywordEscalation(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	result, err := c.Classify(domain.Issue{
		Number: 108,
		Title:  "Feature request: add export",
		Body:   "This is blocking our production rollout.",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Priority != PriorityCritical {
		t.Fatalf("priority = %s, want critical from keyword escalation", result.Priority)
	}
}

func TestUpdateConfigHotSwap(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	enabled := false
	cfg := Config{
		Version:       "test-2",
		MinConfidence: 0.5,
		MaxCategories: 1,
		Rules: []Rule{
			{
				ID:       "only-docs",
				Category: CategoryDocumentation,
				Weight:   1.0,
				Conditions: RuleConditions{
					TitleKeywords: []string{"docs"},
				},
			},
			{
				ID:       "disabled-bug",
				Category: CategoryBug,
				Weight:   1.0,
				Enabled:  &enabled,
				Conditions: RuleConditions{
					TitleKeywords: []string{"docs"},
				},
			},
		},
	}
	c.UpdateConfig(cfg)

	result, err := c.Classify(domain.Issue{Number: 109, Title: "docs overhaul"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.ConfigVersion != "test-2" {
		t.Fatalf("config version = %q, want test-2", result.ConfigVersion)
	}
	if result.PrimaryCategory != CategoryDocumentation {
		t.Fatalf("primary = %s, want documentation (disabled rule must not fire)", result.PrimaryCategory)
	}
	for _, cs := range result.Categories {
		if cs.Category == CategoryBug {
			t.Fatal("disabled rule contributed to classification")
		}
	}
}

func TestCategoryWeightMultiplier(t *testing.T) {
	cfg := Config{
		Version:       "weights",
		MinConfidence: 0.1,
		MaxCategories: 3,
		CategoryWeights: map[Category]float64{
			CategoryBug: 0.5,
		},
		Rules: []Rule{
			{
				ID:       "bug",
				Category: CategoryBug,
				Weight:   1.0,
				Conditions: RuleConditions{
					TitleKeywords: []string{"crash"},
				},
			},
		},
	}
	c := NewClassifier(cfg)

	result, err := c.Classify(domain.Issue{Number: 110, Title: "crash"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	// 0.4 keyword points * 1.0 weight * 0.5 multiplier
	if got := result.Categories[0].Confidence; got < 0.199 || got > 0.201 {
		t.Fatalf("confidence = %v, want 0.2", got)
	}
}
