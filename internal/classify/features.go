package classify

import (
	"strings"

	"issuetriage/internal/domain"
)

// IssueFeatures is the normalized view of one issue that rules evaluate
// against. It is built per classification call and never persisted.
type IssueFeatures struct {
	Title  string   // lowercased
	Body   string   // lowercased
	Labels []string // lowercased label names

	Meta FeatureMeta
}

// FeatureMeta carries structural metadata about the issue text.
type FeatureMeta struct {
	TitleLength         int
	BodyLength          int
	LabelCount          int
	HasCodeBlocks       bool
	HasStepsToReproduce bool
	HasExpectedBehavior bool
	RawLabels           []string
}

// ExtractFeatures normalizes an issue into a feature bag. Missing title or
// body degrade to empty strings; labels in either the string or object form
// come through domain.Label already resolved to names.
func ExtractFeatures(issue domain.Issue) IssueFeatures {
	title := strings.ToLower(issue.Title)
	body := strings.ToLower(issue.Body)

	rawLabels := issue.LabelNames()
	labels := make([]string, 0, len(rawLabels))
	for _, name := range rawLabels {
		labels = append(labels, strings.ToLower(name))
	}

	return IssueFeatures{
		Title:  title,
		Body:   body,
		Labels: labels,
		Meta: FeatureMeta{
			TitleLength:         len(issue.Title),
			BodyLength:          len(issue.Body),
			LabelCount:          len(labels),
			HasCodeBlocks:       strings.Contains(body, "```"),
			HasStepsToReproduce: strings.Contains(body, "steps to reproduce"),
			HasExpectedBehavior: strings.Contains(body, "expected behavior"),
			RawLabels:           rawLabels,
		},
	}
}
