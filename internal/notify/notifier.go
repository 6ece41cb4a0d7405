// Package notify delivers best-effort operational alerts. Sends never
// block or fail the calling operation: failures are logged and dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Notifier sends an alert message. Implementations must swallow delivery
// failures; callers never learn about them.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Switch is the process-wide notification toggle. It is loaded from
// configuration at startup and mutated only through the toggle endpoint.
type Switch struct {
	enabled atomic.Bool
}

// NewSwitch creates a Switch with the given initial state.
func NewSwitch(enabled bool) *Switch {
	s := &Switch{}
	s.enabled.Store(enabled)
	return s
}

// Enabled reports whether notifications are currently enabled.
func (s *Switch) Enabled() bool {
	return s.enabled.Load()
}

// Set enables or disables notifications.
func (s *Switch) Set(enabled bool) {
	s.enabled.Store(enabled)
}

// Toggle flips the switch and returns the new state.
func (s *Switch) Toggle() bool {
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// WebhookNotifier posts text messages to a chat-robot webhook. An empty
// URL disables delivery; the switch suppresses it at runtime.
type WebhookNotifier struct {
	url    string
	sw     *Switch
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier.
func NewWebhookNotifier(url string, sw *Switch, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		sw:     sw,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.With("component", "notifier"),
	}
}

// webhookMessage is the robot webhook's text message envelope.
type webhookMessage struct {
	MsgType string         `json:"msg_type"`
	Content webhookContent `json:"content"`
}

type webhookContent struct {
	Text string `json:"text"`
}

// Notify posts the message to the webhook. All failures are logged and
// swallowed.
func (n *WebhookNotifier) Notify(ctx context.Context, message string) {
	if !n.sw.Enabled() {
		return
	}

	if n.url == "" {
		n.logger.Warn("webhook URL not configured, skipping notification")
		return
	}

	body, err := json.Marshal(webhookMessage{
		MsgType: "text",
		Content: webhookContent{Text: message},
	})
	if err != nil {
		n.logger.Error("failed to encode notification", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to build notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("failed to send notification", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		n.logger.Error("notification rejected by webhook",
			"status", resp.StatusCode,
			"message", fmt.Sprintf("%.120s", message))
	}
}
