// Package jira implements the ticket source against the JIRA REST API.
package jira

import (
	"context"
	"fmt"
	"strings"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/opswatch/piwatch/config"
	"github.com/opswatch/piwatch/internal/log"
	"github.com/opswatch/piwatch/internal/model"
)

// pageSize is the per-request result cap; JIRA servers clamp larger
// requests to their own maximum anyway.
const pageSize = 100

// Client wraps the JIRA API client.
type Client struct {
	client      *gojira.Client
	project     string
	impactField string
	maxResults  int
}

// NewClient creates a ticket source client using a personal access token.
func NewClient(ctx context.Context, cfg config.JiraConfig, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("JIRA token not provided. Set the JIRA_TOKEN environment variable")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jira base_url is not configured")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = time.Duration(cfg.Timeout) * time.Second

	jc, err := gojira.NewClient(hc, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("jira client: %w", err)
	}

	return &Client{
		client:      jc,
		project:     cfg.Project,
		impactField: cfg.ImpactField,
		maxResults:  cfg.MaxResults,
	}, nil
}

func (c *Client) searchFields() []string {
	return []string{"assignee", "status", "creator", "created", "priority", "updated", "summary", c.impactField}
}

func (c *Client) jql() string {
	return fmt.Sprintf("project = %q AND resolution = unresolved ORDER BY priority DESC, updated DESC", c.project)
}

// FetchOpenTickets returns all unresolved tickets in the configured
// project, ordered by descending priority then descending update time.
// Pages after the first are fetched in parallel and reassembled in
// server order.
func (c *Client) FetchOpenTickets(ctx context.Context) ([]model.Ticket, error) {
	jql := c.jql()
	log.Trace("jira search", "jql", jql)

	issues, resp, err := c.search(ctx, jql, 0)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}

	total := resp.Total
	if total > c.maxResults {
		total = c.maxResults
	}
	tickets := c.convert(issues)
	if len(tickets) >= total {
		if len(tickets) > total {
			tickets = tickets[:total]
		}
		return tickets, nil
	}

	// Remaining pages in parallel, each into its own slot so ordering
	// survives the concurrency.
	offset := len(tickets)
	numPages := (total - offset + pageSize - 1) / pageSize
	pages := make([][]model.Ticket, numPages)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numPages; i++ {
		g.Go(func() error {
			pageIssues, _, err := c.search(gctx, jql, offset+i*pageSize)
			if err != nil {
				return fmt.Errorf("jira search page %d: %w", i+2, err)
			}
			pages[i] = c.convert(pageIssues)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, page := range pages {
		tickets = append(tickets, page...)
	}
	if len(tickets) > total {
		tickets = tickets[:total]
	}
	return tickets, nil
}

func (c *Client) search(ctx context.Context, jql string, startAt int) ([]gojira.Issue, *gojira.Response, error) {
	max := pageSize
	if c.maxResults > 0 && c.maxResults < max {
		max = c.maxResults
	}
	return c.client.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
		StartAt:    startAt,
		MaxResults: max,
		Fields:     c.searchFields(),
	})
}

func (c *Client) convert(issues []gojira.Issue) []model.Ticket {
	tickets := make([]model.Ticket, 0, len(issues))
	for _, issue := range issues {
		tickets = append(tickets, c.toTicket(issue))
	}
	return tickets
}

func (c *Client) toTicket(issue gojira.Issue) model.Ticket {
	t := model.Ticket{
		ID:     issue.Key,
		Impact: model.ImpactNone,
	}
	if issue.Fields == nil {
		return t
	}
	t.Summary = issue.Fields.Summary
	t.Created = time.Time(issue.Fields.Created)
	t.Updated = time.Time(issue.Fields.Updated)
	if issue.Fields.Priority != nil {
		t.Priority = issue.Fields.Priority.Name
	}
	if issue.Fields.Assignee != nil {
		t.Assignee = issue.Fields.Assignee.DisplayName
	}
	t.Impact = normalizeImpact(issue.Fields.Unknowns[c.impactField])
	return t
}

// normalizeImpact maps the raw custom-field payload to the enumerated
// impact string. JIRA renders single-select custom fields as an object
// with a "value" key; an unset field comes back null.
func normalizeImpact(raw any) string {
	switch v := raw.(type) {
	case map[string]any:
		if s, ok := v["value"].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return model.ImpactNone
}
