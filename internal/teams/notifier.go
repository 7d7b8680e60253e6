// Package teams posts channel messages through the Microsoft Graph API.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/opswatch/piwatch/config"
	"github.com/opswatch/piwatch/internal/log"
)

// Notifier posts HTML messages to a single Teams channel.
type Notifier struct {
	client    *http.Client
	baseURL   string
	teamID    string
	channelID string
}

// message is the Graph API chatMessage payload.
type message struct {
	Body messageBody `json:"body"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// NewNotifier creates a channel notifier using a Graph API token.
func NewNotifier(ctx context.Context, cfg config.TeamsConfig, token string) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("Teams token not provided. Set the TEAMS_TOKEN environment variable")
	}
	if cfg.TeamID == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("teams team_id and channel_id must be configured")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = time.Duration(cfg.Timeout) * time.Second

	return &Notifier{
		client:    hc,
		baseURL:   cfg.BaseURL,
		teamID:    cfg.TeamID,
		channelID: cfg.ChannelID,
	}, nil
}

// Notify posts one message to the channel. The text is escaped and
// wrapped in a div, matching the channel's expected HTML body shape.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/teams/%s/channels/%s/messages", n.baseURL, n.teamID, n.channelID)

	payload, err := json.Marshal(message{
		Body: messageBody{
			ContentType: "html",
			Content:     fmt.Sprintf("<div>%s</div>", html.EscapeString(text)),
		},
	})
	if err != nil {
		return fmt.Errorf("teams payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Trace("posting channel message", "url", url, "bytes", len(payload))
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("teams post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("teams post: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
