package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"issuetriage/internal/domain"
)

// CategoryScore is one category's aggregated evidence for an issue.
type CategoryScore struct {
	Category        Category
	Confidence      float64
	Reasons         []string
	MatchedKeywords []string
}

// Classification is the full result of classifying one issue. The caller
// owns it; the classifier keeps no reference.
type Classification struct {
	IssueNumber        int
	Categories         []CategoryScore // sorted descending by confidence, capped at MaxCategories
	PrimaryCategory    Category
	PrimaryConfidence  float64
	Priority           Priority
	PriorityConfidence float64
	ProcessingTime     time.Duration
	ConfigVersion      string
	Meta               FeatureMeta
}

// Classifier scores issues against its currently loaded rule config. The
// config is a plain replaceable value: swap it with UpdateConfig between
// calls, but do not mutate a config while classifications are running
// (single-writer discipline, no internal lock).
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	cfg.applyDefaults()
	cfg.compile()
	return &Classifier{cfg: cfg}
}

// UpdateConfig hot-swaps the rule definitions without reconstructing the
// classifier.
func (c *Classifier) UpdateConfig(cfg Config) {
	cfg.applyDefaults()
	cfg.compile()
	c.cfg = cfg
}

// Config returns the currently loaded config.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify runs the full rule set against one issue. It returns either a
// fully populated Classification or a single error; unexpected panics
// during evaluation are recovered and wrapped, never a partial result.
func (c *Classifier) Classify(issue domain.Issue) (result Classification, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Classification{}
			err = fmt.Errorf("classifying issue #%d: %v", issue.Number, r)
		}
	}()

	features := ExtractFeatures(issue)

	type accumulator struct {
		score    float64
		reasons  []string
		keywords []string
	}
	totals := make(map[Category]*accumulator)
	var order []Category // encounter order, keeps the sort stable across runs

	for i := range c.cfg.Rules {
		rule := &c.cfg.Rules[i]
		if !rule.IsEnabled() {
			continue
		}
		m := evaluateRule(rule, features)
		if m.Score == 0 {
			continue
		}
		weight := rule.Weight
		if mult, ok := c.cfg.CategoryWeights[rule.Category]; ok {
			weight *= mult
		}
		acc := totals[rule.Category]
		if acc == nil {
			acc = &accumulator{}
			totals[rule.Category] = acc
			order = append(order, rule.Category)
		}
		acc.score += m.Score * weight
		acc.reasons = append(acc.reasons, m.Reasons...)
		acc.keywords = append(acc.keywords, m.Keywords...)
	}

	categories := make([]CategoryScore, 0, len(order))
	for _, cat := range order {
		acc := totals[cat]
		confidence := acc.score
		if confidence > 1.0 {
			confidence = 1.0
		}
		categories = append(categories, CategoryScore{
			Category:        cat,
			Confidence:      confidence,
			Reasons:         dedupe(acc.reasons),
			MatchedKeywords: dedupe(acc.keywords),
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Confidence > categories[j].Confidence
	})

	primary := CategoryScore{
		Category:   CategoryQuestion,
		Confidence: 0.3,
		Reasons:    []string{"No clear classification found"},
	}
	if len(categories) > 0 && categories[0].Confidence >= c.cfg.MinConfidence {
		primary = categories[0]
	}

	priority, priorityConfidence := estimatePriority(primary, features)

	if c.cfg.MaxCategories > 0 && len(categories) > c.cfg.MaxCategories {
		categories = categories[:c.cfg.MaxCategories]
	}

	return Classification{
		IssueNumber:        issue.Number,
		Categories:         categories,
		PrimaryCategory:    primary.Category,
		PrimaryConfidence:  primary.Confidence,
		Priority:           priority,
		PriorityConfidence: priorityConfidence,
		ProcessingTime:     time.Since(start),
		ConfigVersion:      c.cfg.Version,
		Meta:               features.Meta,
	}, nil
}

var categoryPriority = map[Category]Priority{
	CategorySecurity:       PriorityCritical,
	CategoryBug:            PriorityHigh,
	CategoryPerformance:    PriorityHigh,
	CategoryFeature:        PriorityMedium,
	CategoryEnhancement:    PriorityMedium,
	CategoryRefactor:       PriorityMedium,
	CategoryCICD:           PriorityMedium,
	CategoryHelpWanted:     PriorityMedium,
	CategoryDocumentation:  PriorityLow,
	CategoryQuestion:       PriorityLow,
	CategoryTest:           PriorityLow,
	CategoryDependencies:   PriorityLow,
	CategoryDuplicate:      PriorityLow,
	CategoryInvalid:        PriorityLow,
	CategoryWontfix:        PriorityLow,
	CategoryGoodFirstIssue: PriorityLow,
}

var criticalKeywords = []string{"critical", "urgent", "blocking", "production", "crash", "data loss", "security"}
var highKeywords = []string{"urgent", "important", "asap"}

var priorityLabelRe = regexp.MustCompile(`(?i)priority|urgent|critical|high|medium|low`)
var criticalLabelRe = regexp.MustCompile(`(?i)critical|urgent|p0|p1`)

// estimatePriority derives the priority from the primary classification's
// category, then escalates on urgency keywords and priority-indicating
// labels.
func estimatePriority(primary CategoryScore, features IssueFeatures) (Priority, float64) {
	priority, ok := categoryPriority[primary.Category]
	if !ok {
		priority = PriorityMedium
	}
	confidence := primary.Confidence * 0.7

	if containsAny(features.Title, criticalKeywords) || containsAny(features.Body, criticalKeywords) {
		priority = PriorityCritical
		confidence += 0.3
	} else if (priority == PriorityMedium || priority == PriorityLow) &&
		(containsAny(features.Title, highKeywords) || containsAny(features.Body, highKeywords)) {
		priority = PriorityHigh
		confidence += 0.2
	}

	hasPriorityLabel := false
	for _, label := range features.Labels {
		if priorityLabelRe.MatchString(label) {
			hasPriorityLabel = true
			if criticalLabelRe.MatchString(label) {
				priority = PriorityCritical
			}
		}
	}
	if hasPriorityLabel {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return priority, confidence
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
