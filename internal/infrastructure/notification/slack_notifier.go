package notification

import (
	"context"
	"fmt"
	"net/http"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/slack-go/slack"
)

// SlackNotifier posts order summaries to a Slack incoming webhook URL
type SlackNotifier struct {
	httpClient *http.Client
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(httpClient *http.Client) ports.Notifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SlackNotifier{httpClient: httpClient}
}

// Send posts one Block Kit message for summary to the webhook at destination
func (n *SlackNotifier) Send(ctx context.Context, destination string, summary domain.OrderSummary) error {
	if destination == "" {
		return fmt.Errorf("slack webhook url is not configured")
	}

	msg := BuildSlackMessage(summary)
	if err := slack.PostWebhookCustomHTTPContext(ctx, destination, n.httpClient, msg); err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

// BuildSlackMessage renders an order summary as a header plus a field grid
func BuildSlackMessage(summary domain.OrderSummary) *slack.WebhookMessage {
	verb := "updated"
	if summary.IsNew {
		verb = "received"
	}
	title := fmt.Sprintf("Order #%s %s", summary.ExternalOrderID, verb)

	total := summary.TotalAmount.StringFixed(2)
	if summary.Currency != "" {
		total += " " + summary.Currency
	}

	customer := summary.CustomerName
	if customer == "" {
		customer = summary.CustomerEmail
	} else if summary.CustomerEmail != "" {
		customer = fmt.Sprintf("%s <%s>", customer, summary.CustomerEmail)
	}

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Provider:*\n"+providerLabel(summary.Provider), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Status:*\n"+summary.Status, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Total:*\n"+total, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Items:*\n%d", summary.ItemsCount), false, false),
	}
	if customer != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Customer:*\n"+customer, false, false))
	}

	return &slack.WebhookMessage{
		Text: title,
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
				slack.NewDividerBlock(),
				slack.NewSectionBlock(nil, fields, nil),
			},
		},
	}
}

func providerLabel(p domain.Provider) string {
	switch p {
	case domain.ProviderWooCommerce:
		return "WooCommerce"
	case domain.ProviderShopify:
		return "Shopify"
	}
	return p.String()
}
