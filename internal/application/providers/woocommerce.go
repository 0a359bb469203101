package providers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	WooSignatureHeader = "X-WC-Webhook-Signature"
	WooSourceHeader    = "X-WC-Webhook-Source"
	WooTopicHeader     = "X-WC-Webhook-Topic"

	wooTimeLayout = "2006-01-02T15:04:05"
)

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (a wooAddress) toDomain() domain.Address {
	return domain.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Phone:     a.Phone,
		Email:     a.Email,
	}
}

type wooLineItem struct {
	Name     string          `json:"name"`
	SKU      *string         `json:"sku"`
	Quantity quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type wooOrder struct {
	ID              externalID      `json:"id"`
	Status          string          `json:"status"`
	Currency        string          `json:"currency"`
	Total           json.RawMessage `json:"total"`
	DateCreatedGMT  string          `json:"date_created_gmt"`
	DateModifiedGMT string          `json:"date_modified_gmt"`
	Billing         wooAddress      `json:"billing"`
	Shipping        wooAddress      `json:"shipping"`
	LineItems       []wooLineItem   `json:"line_items"`
}

// WooCommerceAdapter authenticates WooCommerce webhooks by matching the body signature
// against every active integration secret
type WooCommerceAdapter struct {
	credentials ports.CredentialMatcher
	logger      zerolog.Logger
}

// NewWooCommerceAdapter creates a new WooCommerce provider adapter
func NewWooCommerceAdapter(credentials ports.CredentialMatcher, logger zerolog.Logger) *WooCommerceAdapter {
	return &WooCommerceAdapter{
		credentials: credentials,
		logger:      logger,
	}
}

func (a *WooCommerceAdapter) Provider() domain.Provider {
	return domain.ProviderWooCommerce
}

// CanHandle returns true if this adapter can process the given topic
func (a *WooCommerceAdapter) CanHandle(topic string) bool {
	return topic == "" ||
		topic == "order.created" ||
		topic == "order.updated" ||
		topic == "order.restored"
}

// Authenticate resolves the integration whose secret signed the raw body
func (a *WooCommerceAdapter) Authenticate(ctx context.Context, req *domain.InboundRequest) (*domain.Integration, *domain.AuthAttempt, error) {
	provided := strings.TrimSpace(req.Header.Get(WooSignatureHeader))
	source := strings.TrimSpace(req.Header.Get(WooSourceHeader))

	attempt := &domain.AuthAttempt{
		Mode:            "signature",
		ChannelsChecked: []string{"header:" + WooSignatureHeader, "header:" + WooSourceHeader},
		Discriminator:   source,
	}

	if provided == "" || source == "" {
		return nil, attempt, domain.NewAuthenticationError("missing_credentials", "missing webhook signature or source header")
	}
	attempt.Channel = "header:" + WooSignatureHeader
	attempt.SecretPrefix = domain.SecretPrefix(provided)

	integration, checked, err := a.credentials.FindMatchingCandidate(ctx, a.Provider(), req.Body, provided, source)
	attempt.CandidatesChecked = checked
	if err != nil {
		return nil, attempt, domain.NewPersistenceError("failed to load integrations", err)
	}
	if integration == nil {
		a.logger.Debug().
			Str("source", source).
			Int("candidates", checked).
			Msg("WooCommerce signature matched no integration")
		return nil, attempt, domain.NewAuthenticationError("no_matching_integration", "no matching integration")
	}

	attempt.IntegrationID = integration.ID
	return integration, attempt, nil
}

// Normalize maps a WooCommerce order payload into the internal order shape
func (a *WooCommerceAdapter) Normalize(body []byte) (*domain.NormalizedOrder, error) {
	var payload wooOrder
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}

	total, err := parseTotal(payload.Total)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(payload.LineItems))
	for _, li := range payload.LineItems {
		sku := ""
		if li.SKU != nil {
			sku = strings.TrimSpace(*li.SKU)
		}
		items = append(items, domain.LineItem{
			SKU:         sku,
			ProductName: li.Name,
			Quantity:    int(li.Quantity),
			UnitPrice:   li.Price,
		})
	}

	order := &domain.NormalizedOrder{
		Provider:        a.Provider(),
		ExternalOrderID: string(payload.ID),
		Customer: domain.CustomerFields{
			Name:  displayName(payload.Billing.FirstName, payload.Billing.LastName),
			Email: firstNonEmpty(payload.Billing.Email, payload.Shipping.Email),
			Phone: firstNonEmpty(payload.Billing.Phone, payload.Shipping.Phone),
			Address: domain.CustomerAddress{
				Billing:  payload.Billing.toDomain(),
				Shipping: payload.Shipping.toDomain(),
			},
		},
		Order: domain.OrderFields{
			Status:            strings.TrimSpace(payload.Status),
			TotalAmount:       total,
			Currency:          payload.Currency,
			ProviderCreatedAt: parseWooTime(payload.DateCreatedGMT),
			ProviderUpdatedAt: parseWooTime(payload.DateModifiedGMT),
		},
		Items: items,
	}

	if err := validateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// parseWooTime parses WooCommerce *_gmt timestamps, which carry no zone and are UTC
func parseWooTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(wooTimeLayout, value, time.UTC)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return nil
		}
	}
	return &t
}
