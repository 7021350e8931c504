// Package proxy relays sync requests from the portal to a deployed Apps Script
// web app, which browsers cannot call directly.
package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
)

// Path is where the proxy is mounted
const Path = "/api/sheets"

const (
	bodyExcerptLen = 500
	defaultTimeout = 30 * time.Second
)

// Handler forwards POST bodies to the Apps Script URL
type Handler struct {
	scriptURL string
	client    *http.Client
	logger    *zap.Logger
}

// New returns a proxy handler. A non-empty scriptURL wins over the scriptUrl
// field of each request body. client may be nil.
func New(scriptURL string, client *http.Client, logger *zap.Logger) *Handler {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Handler{scriptURL: scriptURL, client: client, logger: logger}
}

// Register mounts the proxy on every method of Path
func (h *Handler) Register(r gin.IRouter) {
	r.Any(Path, h.Serve)
}

func (h *Handler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"ok": false, "error": "Use POST"})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.fail(c, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		h.fail(c, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	target := h.scriptURL
	if target == "" {
		target = bodyScriptURL(body)
	}
	if !model.IsScriptURL(target) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing or invalid APPS_SCRIPT_URL (/exec)"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, target, bytes.NewReader(raw))
	if err != nil {
		h.fail(c, fmt.Errorf("failed to create upstream request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.fail(c, fmt.Errorf("upstream request failed: %w", err))
		return
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		h.fail(c, fmt.Errorf("failed to read upstream response: %w", err))
		return
	}

	h.logger.Debug("Relayed sheets request",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(text)))

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		c.Data(resp.StatusCode, "application/json; charset=utf-8", text)
		return
	}

	var parsed any
	if err := json.Unmarshal(text, &parsed); err == nil {
		c.JSON(resp.StatusCode, parsed)
		return
	}

	c.JSON(resp.StatusCode, gin.H{
		"ok":     resp.StatusCode >= 200 && resp.StatusCode < 300,
		"status": resp.StatusCode,
		"body":   excerpt(string(text)),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Warn("Sheets proxy failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

// excerpt keeps the first bodyExcerptLen characters of s
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= bodyExcerptLen {
		return s
	}
	return string(runes[:bodyExcerptLen])
}

// bodyScriptURL reads scriptUrl from an object body. Any other JSON value
// has no URL and is left to the shape check.
func bodyScriptURL(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	u, _ := obj["scriptUrl"].(string)
	return u
}
