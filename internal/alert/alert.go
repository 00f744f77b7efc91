// Package alert forwards noteworthy run results to external receivers.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// Notifier receives completed results whose status is warning or failed.
// Passing runs are never forwarded.
type Notifier interface {
	Notify(ctx context.Context, result model.TestResult) error
}

// WebhookNotifier posts results to a configured webhook URL.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

var _ Notifier = (*WebhookNotifier)(nil)

// webhookPayload is the JSON body posted to the webhook.
type webhookPayload struct {
	Event     string            `json:"event"`
	Timestamp time.Time         `json:"timestamp"`
	TestID    string            `json:"testId"`
	RunID     string            `json:"runId"`
	Status    model.TestStatus  `json:"status"`
	Message   string            `json:"message"`
	Result    *model.TestResult `json:"result,omitempty"`
}

// NewWebhookNotifier creates a notifier posting to webhookURL. An empty
// URL yields a notifier that drops every event.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify posts the result to the webhook.
func (w *WebhookNotifier) Notify(ctx context.Context, result model.TestResult) error {
	if w.webhookURL == "" {
		return nil
	}

	event := "test_warning"
	if result.Status == model.StatusFailed {
		event = "test_failed"
	}

	payload := webhookPayload{
		Event:     event,
		Timestamp: time.Now(),
		TestID:    result.TestID,
		RunID:     result.RunID,
		Status:    result.Status,
		Message: fmt.Sprintf("Test '%s' finished with status %s (%d threshold violations)",
			result.TestID, result.Status, len(result.ThresholdViolations)),
		Result: &result,
	}

	return w.send(ctx, payload)
}

func (w *WebhookNotifier) send(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Sent alert notification", "event", payload.Event, "testId", payload.TestID)
	return nil
}

// IsConfigured returns true if a webhook URL is configured.
func (w *WebhookNotifier) IsConfigured() bool {
	return w.webhookURL != ""
}
