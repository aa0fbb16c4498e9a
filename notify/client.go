// Package notify implements the NTFY collaborator client (§6 "Notification
// channel"): `send(message, actions)`, `is_waiting_for_input(group_dir)`,
// `request_playlist_name(group_dir, team_name)`, plus the supplemented
// game-start/game-end signals original_source/.../tasks/ntfy documents.
// Grounded on the teacher's clients/callback_client.go for the retryable
// HTTP client construction (RetryMax/RetryWaitMin/RetryWaitMax, a bounded
// per-request timeout), adapted from a status-callback poster to a
// notification poster.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/metrics"
)

// Action is one ntfy.sh action button (§ original game_start/game_end
// tasks' "Yes"/"No"/"Not a Game" buttons).
type Action struct {
	Action  string            `json:"action"`
	Label   string            `json:"label"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Body    string            `json:"body"`
	Clear   bool              `json:"clear"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Client posts notifications to an ntfy.sh topic and tracks which groups are
// currently waiting on a human response.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string

	mu      sync.Mutex
	waiting map[string]bool
}

func NewClient(cfg config.NTFYConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 1 * time.Second
	rc.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	rc.Logger = nil
	rc.CheckRetry = metrics.HttpRetryHook

	return &Client{
		httpClient: rc.StandardClient(),
		baseURL:    cfg.BaseURL,
		topic:      cfg.Topic,
		waiting:    map[string]bool{},
	}
}

type message struct {
	Topic    string   `json:"topic"`
	Message  string   `json:"message"`
	Title    string   `json:"title,omitempty"`
	Priority int      `json:"priority,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

// Send posts message with optional action buttons to the configured topic.
func (c *Client) Send(title, msg string, actions ...Action) error {
	payload, err := json.Marshal(message{Topic: c.topic, Title: title, Message: msg, Priority: 3, Actions: actions})
	if err != nil {
		return fmt.Errorf("marshalling ntfy message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building ntfy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := metrics.MonitorRequest(metrics.Metrics.NTFYClient, c.httpClient, req)
	if err != nil {
		return fmt.Errorf("posting ntfy message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}

// IsWaitingForInput reports whether a human-input request is outstanding
// for groupDir (§6).
func (c *Client) IsWaitingForInput(groupDir string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting[groupDir]
}

// RequestPlaylistName asks a human which playlist teamName's uploads belong
// in (§4.5 step 2). The Upload Processor must not mark its task done until
// a response updates the playlist map; this client only tracks that a
// request is outstanding so the Auditor's next pass doesn't re-request.
func (c *Client) RequestPlaylistName(groupDir, teamName string) error {
	c.mu.Lock()
	c.waiting[groupDir] = true
	c.mu.Unlock()

	actionURL := fmt.Sprintf("%s/%s", c.baseURL, c.topic)
	return c.Send(
		"Playlist name needed",
		fmt.Sprintf("No playlist is configured for team %q. Reply with the playlist name to use.", teamName),
		Action{Action: "view", Label: "Reply", URL: actionURL, Method: "POST", Clear: true},
	)
}

// ResolvePlaylistName clears the outstanding-request flag for groupDir once
// a human response has supplied a name (called by whatever surface receives
// the ntfy reply; out of scope here per §1 Non-goals).
func (c *Client) ResolvePlaylistName(groupDir string) {
	c.mu.Lock()
	delete(c.waiting, groupDir)
	c.mu.Unlock()
}

// SendGameStart notifies that a group's match window has begun (§ design
// note on NTFY task types; original_source's game_start_task.py signal,
// simplified to a single notification rather than the interactive
// screenshot Q&A loop).
func (c *Client) SendGameStart(groupDir string) error {
	return c.Send("Game started", fmt.Sprintf("Recording group %s has started.", groupDir))
}

// SendGameEnd notifies that Trim has completed for a group.
func (c *Client) SendGameEnd(groupDir string) error {
	return c.Send("Game ended", fmt.Sprintf("Recording group %s has been trimmed.", groupDir))
}
