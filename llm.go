package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// GenerateNarrative asks the LLM for a short executive narrative over the
// already-computed analytics. It never classifies issues and callers treat
// failures as non-fatal: the report falls back to the deterministic summary.
func GenerateNarrative(cfg Config, data TriageData) (string, error) {
	systemPrompt := `You write a short executive narrative for an engineering issue-triage report.
Use only the facts provided. Two paragraphs maximum, plain prose, no markdown headers, no invented numbers.`

	var facts strings.Builder
	facts.WriteString("Summary: " + data.Insights.Summary + "\n")
	fmt.Fprintf(&facts, "Issue creation trend: %s (confidence %.2f)\n", data.Trend.Direction, data.Trend.Confidence)
	fmt.Fprintf(&facts, "Resolution rate: %.1f%%, backlog: %d, throughput: %.2f issues/day\n",
		data.Metrics.ResolutionRate, data.Metrics.BacklogSize, data.Metrics.ThroughputPerDay)
	for _, f := range data.Insights.KeyFindings {
		facts.WriteString("Finding: " + f + "\n")
	}
	for _, r := range data.Insights.RiskFactors {
		facts.WriteString("Risk: " + r + "\n")
	}
	for _, o := range data.Insights.Opportunities {
		facts.WriteString("Opportunity: " + o + "\n")
	}
	for _, r := range data.Insights.Recommendations {
		facts.WriteString("Recommendation: " + r + "\n")
	}

	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}
	log.Printf("llm narrative model=%s facts_len=%d", model, facts.Len())

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(facts.String())),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm narrative response size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
