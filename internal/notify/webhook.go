// Package notify delivers the run verdict to external endpoints. Delivery
// failures are never critical: the exit code and JSON report stay the
// authoritative signals.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/holthome/backupctl/internal/logging"
	"github.com/holthome/backupctl/internal/orchestrator"
)

// WebhookNotifier posts the final report to a configured endpoint.
type WebhookNotifier struct {
	endpoint string
	logger   *logging.Logger
	client   *http.Client
}

// NewWebhookNotifier creates a webhook notifier. An empty endpoint returns
// a disabled notifier.
func NewWebhookNotifier(endpoint string, logger *logging.Logger) (*WebhookNotifier, error) {
	if endpoint == "" {
		return &WebhookNotifier{logger: logger}, nil
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid webhook endpoint %q", endpoint)
	}

	return &WebhookNotifier{
		endpoint: endpoint,
		logger:   logger,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// IsEnabled returns whether a webhook endpoint is configured.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.endpoint != ""
}

type webhookPayload struct {
	Hostname string                  `json:"hostname"`
	Verdict  string                  `json:"verdict"`
	Report   *orchestrator.RunReport `json:"report"`
	SentAt   time.Time               `json:"sent_at"`
}

// deliveryTimeout bounds one webhook request regardless of caller context.
const deliveryTimeout = 30 * time.Second

// Send posts the report. Errors are logged and returned but must not alter
// the process exit code. Delivery is detached from the caller's
// cancellation: an interrupted run (exit 130) is exactly the verdict an
// operator wants delivered, and by then the run context is already dead.
func (w *WebhookNotifier) Send(ctx context.Context, hostname, verdict string, report *orchestrator.RunReport) error {
	if !w.IsEnabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{
		Hostname: hostname,
		Verdict:  verdict,
		Report:   report,
		SentAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warning("Webhook delivery failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Warning("Webhook endpoint returned %s", resp.Status)
		return fmt.Errorf("webhook endpoint returned %s", resp.Status)
	}

	w.logger.Debug("Webhook notification delivered")
	return nil
}
