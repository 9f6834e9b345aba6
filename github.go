package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"issuetriage/internal/domain"
)

type githubSearchResponse struct {
	TotalCount int               `json:"total_count"`
	Items      []githubIssueItem `json:"items"`
}

type githubIssueItem struct {
	Number        int             `json:"number"`
	Title         string          `json:"title"`
	Body          string          `json:"body"`
	State         string          `json:"state"` // "open" or "closed"
	CreatedAt     string          `json:"created_at"`
	ClosedAt      string          `json:"closed_at"`
	Labels        []domain.Label  `json:"labels"`
	PullRequest   json.RawMessage `json:"pull_request"` // present only for PRs
	RepositoryURL string          `json:"repository_url"`
}

// FetchIssues pulls the issues relevant to one analysis window: everything
// created in the range plus everything closed in it (issues opened earlier
// still feed the resolution metrics). Pull requests are filtered out.
func FetchIssues(cfg Config, from, to time.Time) ([]domain.Issue, error) {
	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")
	scope := buildScopeQualifier(cfg)

	createdQuery := fmt.Sprintf("type:issue created:%s..%s %s", fromStr, toStr, scope)
	log.Printf("github fetch created query=%s", createdQuery)
	createdItems, err := searchGitHubIssues(cfg.GitHubToken, createdQuery)
	if err != nil {
		return nil, fmt.Errorf("searching created issues: %w", err)
	}

	closedQuery := fmt.Sprintf("type:issue is:closed closed:%s..%s %s", fromStr, toStr, scope)
	log.Printf("github fetch closed query=%s", closedQuery)
	closedItems, err := searchGitHubIssues(cfg.GitHubToken, closedQuery)
	if err != nil {
		return nil, fmt.Errorf("searching closed issues: %w", err)
	}

	seen := make(map[string]bool)
	var issues []domain.Issue
	for _, item := range append(createdItems, closedItems...) {
		if len(item.PullRequest) > 0 {
			continue
		}
		key := fmt.Sprintf("%s#%d", item.RepositoryURL, item.Number)
		if seen[key] {
			continue
		}
		seen[key] = true
		issues = append(issues, convertGitHubItem(item))
	}

	log.Printf("github fetch done total=%d (created=%d closed=%d)", len(issues), len(createdItems), len(closedItems))
	return issues, nil
}

func searchGitHubIssues(token, query string) ([]githubIssueItem, error) {
	var all []githubIssueItem
	page := 1

	for {
		apiURL := fmt.Sprintf("https://api.github.com/search/issues?q=%s&per_page=100&page=%d",
			url.QueryEscape(query), page)

		req, err := http.NewRequest("GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := externalHTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(body))
		}

		var result githubSearchResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}

		all = append(all, result.Items...)

		if len(result.Items) < 100 {
			break
		}
		page++
	}

	return all, nil
}

func convertGitHubItem(item githubIssueItem) domain.Issue {
	// Missing or malformed timestamps degrade to zero times; the analytics
	// layer excludes those from duration-based aggregates.
	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	var closedAt time.Time
	if item.ClosedAt != "" {
		closedAt, _ = time.Parse(time.RFC3339, item.ClosedAt)
	}

	return domain.Issue{
		Number:    item.Number,
		Title:     item.Title,
		Body:      item.Body,
		State:     item.State,
		Labels:    item.Labels,
		CreatedAt: createdAt,
		ClosedAt:  closedAt,
	}
}

func buildScopeQualifier(cfg Config) string {
	if len(cfg.GitHubRepos) > 0 {
		var parts []string
		for _, repo := range cfg.GitHubRepos {
			parts = append(parts, "repo:"+repo)
		}
		return strings.Join(parts, " ")
	}
	if cfg.GitHubOrg != "" {
		return "org:" + cfg.GitHubOrg
	}
	return ""
}
