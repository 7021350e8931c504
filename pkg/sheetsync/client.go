package sheetsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

const (
	// excerptLen bounds how much of an unexpected response body ends up in an error
	excerptLen = 200

	DefaultTimeout = 15 * time.Second
)

// Action names understood by the Apps Script web app
const (
	ActionPing           = "ping"
	ActionCreateAbsence  = "createAbsence"
	ActionUpdateStatus   = "updateStatus"
	ActionNotifyDecision = "notifyDecision"
)

// SyncError is returned when the proxy answers with a non-2xx status or a
// body that is not JSON
type SyncError struct {
	Status     int
	StatusText string
	Excerpt    string
	NonJSON    bool
}

func (e *SyncError) Error() string {
	if e.NonJSON {
		return fmt.Sprintf("Non-JSON from proxy: %s", e.Excerpt)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.StatusText, e.Excerpt)
}

// Client posts action payloads to the sheets proxy
type Client struct {
	proxyURL   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the proxy at proxyURL
func NewClient(proxyURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		proxyURL:   proxyURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Post sends {scriptUrl, ...payload} to the proxy and returns the decoded JSON reply
func (c *Client) Post(ctx context.Context, scriptURL string, payload map[string]any) (any, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["scriptUrl"] = scriptURL

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach sheets proxy: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}
	text := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SyncError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Excerpt:    excerpt(text, excerptLen),
		}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &SyncError{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Excerpt:    excerpt(text, excerptLen),
			NonJSON:    true,
		}
	}

	c.logger.Debug("Sheets proxy replied", zap.Int("status", resp.StatusCode), zap.Any("action", payload["action"]))
	return decoded, nil
}

// Ping checks that the script is reachable
func (c *Client) Ping(ctx context.Context, scriptURL string) (any, error) {
	return c.Post(ctx, scriptURL, map[string]any{"action": ActionPing})
}

// CreateAbsence mirrors a newly submitted absence
func (c *Client) CreateAbsence(ctx context.Context, scriptURL string, record model.Absence) (any, error) {
	return c.Post(ctx, scriptURL, map[string]any{
		"action": ActionCreateAbsence,
		"record": record,
	})
}

// UpdateStatus mirrors a decision or cancellation
func (c *Client) UpdateStatus(ctx context.Context, scriptURL, id string, status model.AbsenceStatus, directorNote string) (any, error) {
	return c.Post(ctx, scriptURL, map[string]any{
		"action":       ActionUpdateStatus,
		"id":           id,
		"status":       status,
		"directorNote": directorNote,
	})
}

// statusText returns the reason phrase, e.g. "Bad Gateway" from "502 Bad Gateway"
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// excerpt returns at most n runes of s
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
