package classify

import (
	"fmt"
	"strings"
)

// Contribution points per matched condition. Each match adds its points
// uncapped; the rule total is capped at 1.0 before the rule weight applies.
const (
	titleKeywordPoints = 0.4
	bodyKeywordPoints  = 0.3
	labelMatchPoints   = 0.5
	titlePatternPoints = 0.4
	bodyPatternPoints  = 0.3
)

type ruleMatch struct {
	Score    float64
	Reasons  []string
	Keywords []string
}

// evaluateRule scores one rule against a feature bag. An exclude-keyword
// hit anywhere in title or body zeroes the rule entirely; other rules are
// unaffected.
func evaluateRule(rule *Rule, features IssueFeatures) ruleMatch {
	for _, kw := range rule.Conditions.ExcludeKeywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(features.Title, kw) || strings.Contains(features.Body, kw) {
			return ruleMatch{}
		}
	}

	var m ruleMatch
	for _, kw := range rule.Conditions.TitleKeywords {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(features.Title, kw) {
			m.Score += titleKeywordPoints
			m.Reasons = append(m.Reasons, fmt.Sprintf("title contains %q", kw))
			m.Keywords = append(m.Keywords, kw)
		}
	}
	for _, kw := range rule.Conditions.BodyKeywords {
		kw = strings.ToLower(kw)
		if kw != "" && strings.Contains(features.Body, kw) {
			m.Score += bodyKeywordPoints
			m.Reasons = append(m.Reasons, fmt.Sprintf("body contains %q", kw))
			m.Keywords = append(m.Keywords, kw)
		}
	}
	for _, ruleLabel := range rule.Conditions.Labels {
		ruleLabel = strings.ToLower(ruleLabel)
		if ruleLabel == "" {
			continue
		}
		for _, issueLabel := range features.Labels {
			if strings.Contains(issueLabel, ruleLabel) {
				m.Score += labelMatchPoints
				m.Reasons = append(m.Reasons, fmt.Sprintf("label %q matches %q", issueLabel, ruleLabel))
				m.Keywords = append(m.Keywords, issueLabel)
				break
			}
		}
	}
	for _, cp := range rule.titleRegexps {
		if cp.re.MatchString(features.Title) {
			m.Score += titlePatternPoints
			m.Reasons = append(m.Reasons, fmt.Sprintf("title matches pattern %s", cp.src))
		}
	}
	for _, cp := range rule.bodyRegexps {
		if cp.re.MatchString(features.Body) {
			m.Score += bodyPatternPoints
			m.Reasons = append(m.Reasons, fmt.Sprintf("body matches pattern %s", cp.src))
		}
	}

	if m.Score > 1.0 {
		m.Score = 1.0
	}
	return m
}
