/*
Package notify delivers best-effort notifications to collaborators.

Two channels exist: supervisor notification when a question escalates, and
caller follow-up when a supervisor resolves one. Both are fire-and-forget:
delivery failures are logged and never propagated, because the ledger and
knowledge mutations already committed are authoritative.
*/
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// defaultTimeout bounds a single webhook delivery.
const defaultTimeout = 10 * time.Second

// SupervisorNotification is the payload sent when a question escalates.
type SupervisorNotification struct {
	RequestID   string `json:"requestId"`
	Question    string `json:"question"`
	CallerPhone string `json:"callerPhone"`
	CallerName  string `json:"callerName,omitempty"`
	Context     string `json:"context,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// CallerFollowup is the payload sent when an escalation resolves.
type CallerFollowup struct {
	RequestID          string `json:"requestId"`
	CallerPhone        string `json:"callerPhone"`
	SupervisorResponse string `json:"supervisorResponse"`
	Timestamp          string `json:"timestamp"`
}

// Notifier is the outbound notification channel.
type Notifier interface {
	NotifySupervisor(ctx context.Context, n SupervisorNotification) error
	NotifyCallerFollowup(ctx context.Context, f CallerFollowup) error
}

// WebhookNotifier posts JSON payloads to configured webhook URLs.
// An empty URL disables that channel.
type WebhookNotifier struct {
	SupervisorURL string
	FollowupURL   string

	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with a bounded HTTP client.
// timeout <= 0 selects the 10 second default.
func NewWebhookNotifier(supervisorURL, followupURL string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &WebhookNotifier{
		SupervisorURL: supervisorURL,
		FollowupURL:   followupURL,
		client:        &http.Client{Timeout: timeout},
	}
}

// NotifySupervisor posts the escalation payload to the supervisor webhook.
func (w *WebhookNotifier) NotifySupervisor(ctx context.Context, n SupervisorNotification) error {
	return w.post(ctx, w.SupervisorURL, n)
}

// NotifyCallerFollowup posts the resolution payload to the follow-up webhook.
func (w *WebhookNotifier) NotifyCallerFollowup(ctx context.Context, f CallerFollowup) error {
	return w.post(ctx, w.FollowupURL, f)
}

func (w *WebhookNotifier) post(ctx context.Context, url string, payload interface{}) error {
	if url == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %s", resp.Status)
	}

	return nil
}

// Nop is a notifier that does nothing. Used when no channel is configured
// and by tests.
type Nop struct{}

func (Nop) NotifySupervisor(context.Context, SupervisorNotification) error { return nil }
func (Nop) NotifyCallerFollowup(context.Context, CallerFollowup) error     { return nil }

// Multi fans a notification out to several sinks, e.g. webhook plus Slack.
// The first error is returned after all sinks have been tried.
type Multi []Notifier

func (m Multi) NotifySupervisor(ctx context.Context, n SupervisorNotification) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.NotifySupervisor(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) NotifyCallerFollowup(ctx context.Context, f CallerFollowup) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.NotifyCallerFollowup(ctx, f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
