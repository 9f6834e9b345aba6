package classify

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one entry of the closed classification taxonomy.
type Category string

const (
	CategoryBug            Category = "bug"
	CategoryFeature        Category = "feature"
	CategoryEnhancement    Category = "enhancement"
	CategoryDocumentation  Category = "documentation"
	CategoryQuestion       Category = "question"
	CategorySecurity       Category = "security"
	CategoryPerformance    Category = "performance"
	CategoryRefactor       Category = "refactor"
	CategoryTest           Category = "test"
	CategoryCICD           Category = "ci-cd"
	CategoryDependencies   Category = "dependencies"
	CategoryDuplicate      Category = "duplicate"
	CategoryHelpWanted     Category = "help-wanted"
	CategoryGoodFirstIssue Category = "good-first-issue"
	CategoryInvalid        Category = "invalid"
	CategoryWontfix        Category = "wontfix"
)

// Priority is the estimated urgency of an issue.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var validCategories = map[Category]bool{
	CategoryBug: true, CategoryFeature: true, CategoryEnhancement: true,
	CategoryDocumentation: true, CategoryQuestion: true, CategorySecurity: true,
	CategoryPerformance: true, CategoryRefactor: true, CategoryTest: true,
	CategoryCICD: true, CategoryDependencies: true, CategoryDuplicate: true,
	CategoryHelpWanted: true, CategoryGoodFirstIssue: true,
	CategoryInvalid: true, CategoryWontfix: true,
}

var validPriorities = map[Priority]bool{
	PriorityCritical: true, PriorityHigh: true, PriorityMedium: true, PriorityLow: true,
}

// RuleConditions lists the signals a rule matches against. All lists are
// optional; an empty condition simply contributes nothing.
type RuleConditions struct {
	TitleKeywords   []string `yaml:"title_keywords"`
	BodyKeywords    []string `yaml:"body_keywords"`
	Labels          []string `yaml:"labels"`
	TitlePatterns   []string `yaml:"title_patterns"`
	BodyPatterns    []string `yaml:"body_patterns"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// Rule maps a set of conditions to one category with a weight controlling
// its influence. Rules are immutable once loaded into a classifier.
type Rule struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    Category       `yaml:"category"`
	Priority    Priority       `yaml:"priority"`
	Conditions  RuleConditions `yaml:"conditions"`
	Weight      float64        `yaml:"weight"`
	Enabled     *bool          `yaml:"enabled"`

	// Compiled from Conditions.*Patterns at load time so evaluation never
	// recompiles. Patterns that fail to compile are left out.
	titleRegexps []compiledPattern
	bodyRegexps  []compiledPattern
}

type compiledPattern struct {
	src string
	re  *regexp.Regexp
}

// IsEnabled treats a missing enabled flag as true.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Config is the full rule set plus classifier tuning knobs.
type Config struct {
	Rules           []Rule               `yaml:"rules"`
	MinConfidence   float64              `yaml:"min_confidence"`
	MaxCategories   int                  `yaml:"max_categories"`
	CategoryWeights map[Category]float64 `yaml:"category_weights"`
	PriorityWeights map[Priority]float64 `yaml:"priority_weights"`
	Version         string               `yaml:"version"`
}

const (
	defaultMinConfidence = 0.7
	defaultMaxCategories = 3
)

// LoadConfig reads and validates a yaml rules file. Schema problems are
// returned as errors; a malformed file is never silently defaulted.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading rules file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.compile()
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("no rules defined")
	}
	seen := make(map[string]bool, len(c.Rules))
	for i := range c.Rules {
		r := &c.Rules[i]
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("rule %d: missing id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if !validCategories[r.Category] {
			return fmt.Errorf("rule %q: unknown category %q", r.ID, r.Category)
		}
		if r.Priority != "" && !validPriorities[r.Priority] {
			return fmt.Errorf("rule %q: unknown priority %q", r.ID, r.Priority)
		}
		if r.Weight < 0 || r.Weight > 1 {
			return fmt.Errorf("rule %q: weight %.2f out of range [0,1]", r.ID, r.Weight)
		}
		for _, p := range append(append([]string{}, r.Conditions.TitlePatterns...), r.Conditions.BodyPatterns...) {
			if _, err := compilePattern(p); err != nil {
				return fmt.Errorf("rule %q: pattern %q: %w", r.ID, p, err)
			}
		}
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence %.2f out of range [0,1]", c.MinConfidence)
	}
	if c.MaxCategories < 0 {
		return fmt.Errorf("max_categories %d must be >= 0", c.MaxCategories)
	}
	for cat := range c.CategoryWeights {
		if !validCategories[cat] {
			return fmt.Errorf("category_weights: unknown category %q", cat)
		}
	}
	for p := range c.PriorityWeights {
		if !validPriorities[p] {
			return fmt.Errorf("priority_weights: unknown priority %q", p)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MinConfidence == 0 {
		c.MinConfidence = defaultMinConfidence
	}
	if c.MaxCategories == 0 {
		c.MaxCategories = defaultMaxCategories
	}
	if c.Version == "" {
		c.Version = "1.0"
	}
}

// compile caches the rule regexps. Patterns that do not compile are
// skipped here; evaluation treats them as non-matching.
func (c *Config) compile() {
	for i := range c.Rules {
		r := &c.Rules[i]
		r.titleRegexps = r.titleRegexps[:0]
		r.bodyRegexps = r.bodyRegexps[:0]
		for _, p := range r.Conditions.TitlePatterns {
			if re, err := compilePattern(p); err == nil {
				r.titleRegexps = append(r.titleRegexps, compiledPattern{src: p, re: re})
			}
		}
		for _, p := range r.Conditions.BodyPatterns {
			if re, err := compilePattern(p); err == nil {
				r.bodyRegexps = append(r.bodyRegexps, compiledPattern{src: p, re: re})
			}
		}
	}
}

// compilePattern parses rule patterns written as "/body/flags" and compiles
// them. Flags i, m and s map to the corresponding Go inline flags; a bare
// pattern without slashes is compiled as-is.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	body := pattern
	flags := ""
	if strings.HasPrefix(pattern, "/") {
		if end := strings.LastIndex(pattern, "/"); end > 0 {
			body = pattern[1:end]
			flags = pattern[end+1:]
		}
	}
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		case 'g':
			// Match-all flag from other regex dialects; Go has no equivalent
			// and MatchString does not need one.
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", string(f))
		}
	}
	if inline.Len() > 0 {
		body = "(?" + inline.String() + ")" + body
	}
	return regexp.Compile(body)
}

// DefaultConfig returns the built-in rule set used when no rules file is
// configured.
func DefaultConfig() Config {
	cfg := Config{
		Version:       "builtin-1",
		MinConfidence: defaultMinConfidence,
		MaxCategories: defaultMaxCategories,
		Rules: []Rule{
			{
				ID:       "security-report",
				Name:     "Security report",
				Category: CategorySecurity,
				Priority: PriorityCritical,
				Weight:   0.95,
				Conditions: RuleConditions{
					TitleKeywords: []string{"security", "vulnerability", "exploit", "cve", "injection"},
					BodyKeywords:  []string{"security", "vulnerability", "unauthorized", "injection", "xss", "csrf"},
					Labels:        []string{"security"},
				},
			},
			{
				ID:       "bug-report",
				Name:     "Bug report",
				Category: CategoryBug,
				Priority: PriorityHigh,
				Weight:   0.9,
				Conditions: RuleConditions{
					TitleKeywords:   []string{"bug", "fix", "error", "broken", "crash", "fail"},
					BodyKeywords:    []string{"bug", "error", "exception", "steps to reproduce", "stack trace", "crash"},
					Labels:          []string{"bug", "regression"},
					BodyPatterns:    []string{`/expected behavior/i`},
					ExcludeKeywords: []string{"feature request"},
				},
			},
			{
				ID:       "performance-issue",
				Name:     "Performance issue",
				Category: CategoryPerformance,
				Priority: PriorityHigh,
				Weight:   0.85,
				Conditions: RuleConditions{
					TitleKeywords: []string{"slow", "performance", "latency", "memory leak", "cpu"},
					BodyKeywords:  []string{"performance", "slow", "latency", "profiling", "memory usage"},
					Labels:        []string{"performance"},
				},
			},
			{
				ID:       "feature-request",
				Name:     "Feature request",
				Category: CategoryFeature,
				Priority: PriorityMedium,
				Weight:   0.85,
				Conditions: RuleConditions{
					TitleKeywords:   []string{"feature", "add support", "implement", "request", "proposal"},
					BodyKeywords:    []string{"feature", "would be nice", "add support", "use case"},
					Labels:          []string{"feature", "feature-request"},
					ExcludeKeywords: []string{"crash", "broken"},
				},
			},
			{
				ID:       "enhancement",
				Name:     "Enhancement",
				Category: CategoryEnhancement,
				Priority: PriorityMedium,
				Weight:   0.8,
				Conditions: RuleConditions{
					TitleKeywords: []string{"improve", "enhancement", "optimize", "better", "polish"},
					BodyKeywords:  []string{"improve", "enhancement", "nicer"},
					Labels:        []string{"enhancement"},
				},
			},
			{
				ID:       "documentation",
				Name:     "Documentation",
				Category: CategoryDocumentation,
				Priority: PriorityLow,
				Weight:   0.8,
				Conditions: RuleConditions{
					TitleKeywords: []string{"docs", "documentation", "readme", "typo", "changelog"},
					BodyKeywords:  []string{"documentation", "readme", "docs page"},
					Labels:        []string{"documentation", "docs"},
				},
			},
			{
				ID:       "question",
				Name:     "Question",
				Category: CategoryQuestion,
				Priority: PriorityLow,
				Weight:   0.7,
				Conditions: RuleConditions{
					TitleKeywords: []string{"how to", "how do", "question", "why does", "what is"},
					BodyKeywords:  []string{"how do i", "how to", "is it possible", "question"},
					TitlePatterns: []string{`/\?\s*$/`},
					Labels:        []string{"question"},
				},
			},
			{
				ID:       "refactor",
				Name:     "Refactor",
				Category: CategoryRefactor,
				Priority: PriorityMedium,
				Weight:   0.75,
				Conditions: RuleConditions{
					TitleKeywords: []string{"refactor", "cleanup", "rework", "restructure"},
					BodyKeywords:  []string{"refactor", "tech debt", "cleanup"},
					Labels:        []string{"refactor", "tech-debt"},
				},
			},
			{
				ID:       "test-issue",
				Name:     "Test issue",
				Category: CategoryTest,
				Priority: PriorityLow,
				Weight:   0.7,
				Conditions: RuleConditions{
					TitleKeywords: []string{"flaky", "test failure", "coverage", "test suite"},
					BodyKeywords:  []string{"flaky", "test fails", "coverage"},
					Labels:        []string{"test", "flaky-test"},
				},
			},
			{
				ID:       "dependencies",
				Name:     "Dependency update",
				Category: CategoryDependencies,
				Priority: PriorityLow,
				Weight:   0.7,
				Conditions: RuleConditions{
					TitleKeywords: []string{"bump", "dependency", "upgrade", "deprecat"},
					BodyKeywords:  []string{"dependency", "upgrade", "version bump"},
					Labels:        []string{"dependencies"},
				},
			},
		},
	}
	cfg.compile()
	return cfg
}
