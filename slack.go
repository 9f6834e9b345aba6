package main

import (
	"fmt"

	"github.com/slack-go/slack"
)

// PostReportSummary posts the triage summary to the configured channel.
func PostReportSummary(api *slack.Client, channelID, summary string) error {
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(summary, false))
	if err != nil {
		return fmt.Errorf("posting to %s: %w", channelID, err)
	}
	return nil
}
