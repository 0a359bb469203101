package notification

import (
	"context"
	"fmt"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/go-resty/resty/v2"
)

// WebhookEvent is the JSON body posted by WebhookNotifier
type WebhookEvent struct {
	Event string              `json:"event"`
	Data  domain.OrderSummary `json:"data"`
}

// WebhookNotifier posts order summaries as JSON to an arbitrary URL
type WebhookNotifier struct {
	client *resty.Client
}

// NewWebhookNotifier creates a new JSON webhook notifier
func NewWebhookNotifier(timeout time.Duration) ports.Notifier {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "order-ingest-notifier")
	return &WebhookNotifier{client: client}
}

// Send posts summary to destination; any non-2xx status is an error
func (n *WebhookNotifier) Send(ctx context.Context, destination string, summary domain.OrderSummary) error {
	if destination == "" {
		return fmt.Errorf("notification webhook url is not configured")
	}

	event := WebhookEvent{Event: "order.updated", Data: summary}
	if summary.IsNew {
		event.Event = "order.created"
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(destination)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode())
	}
	return nil
}
