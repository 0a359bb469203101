package providers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	ShopifyHmacHeader   = "X-Shopify-Hmac-Sha256"
	ShopifyDomainHeader = "X-Shopify-Shop-Domain"
	ShopifyTopicHeader  = "X-Shopify-Topic"
	SecretHeader        = "X-Webhook-Secret"

	secretQueryParam    = "secret"
	altSecretQueryParam = "webhook_secret"
	secretBodyField     = "webhook_secret"
)

// SecretQueryParams are the query parameters that may carry a shared secret
var SecretQueryParams = []string{secretQueryParam, altSecretQueryParam}

// shopifyEnvelope picks fields that goshopify.Order does not carry
type shopifyEnvelope struct {
	TotalPrice    json.RawMessage `json:"total_price"`
	WebhookSecret string          `json:"webhook_secret"`
}

// ShopifyAdapter authenticates Shopify webhooks by an explicitly presented shared secret,
// falling back to HMAC matching when only the signature header is present
type ShopifyAdapter struct {
	credentials ports.CredentialMatcher
	logger      zerolog.Logger
}

// NewShopifyAdapter creates a new Shopify provider adapter
func NewShopifyAdapter(credentials ports.CredentialMatcher, logger zerolog.Logger) *ShopifyAdapter {
	return &ShopifyAdapter{
		credentials: credentials,
		logger:      logger,
	}
}

func (a *ShopifyAdapter) Provider() domain.Provider {
	return domain.ProviderShopify
}

// CanHandle returns true if this adapter can process the given topic
func (a *ShopifyAdapter) CanHandle(topic string) bool {
	return topic == "" ||
		topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/paid" ||
		topic == "orders/fulfilled" ||
		topic == "orders/partially_fulfilled" ||
		topic == "orders/cancelled"
}

type presentedSecret struct {
	channel string
	value   string
}

// Authenticate resolves the integration from the first explicit secret channel,
// then from the HMAC signature header
func (a *ShopifyAdapter) Authenticate(ctx context.Context, req *domain.InboundRequest) (*domain.Integration, *domain.AuthAttempt, error) {
	attempt := &domain.AuthAttempt{
		Mode: "direct_secret",
		ChannelsChecked: []string{
			"header:" + SecretHeader,
			"query:" + secretQueryParam,
			"query:" + altSecretQueryParam,
			"body:" + secretBodyField,
			"header:" + ShopifyHmacHeader,
		},
		Discriminator: strings.TrimSpace(req.Header.Get(ShopifyDomainHeader)),
	}

	signatureHeader := strings.TrimSpace(req.Header.Get(ShopifyHmacHeader))

	explicit := a.explicitSecret(req)
	if explicit == nil && signatureHeader != "" {
		explicit = &presentedSecret{channel: "header:" + ShopifyHmacHeader, value: signatureHeader}
	}

	if explicit != nil {
		attempt.Channel = explicit.channel
		attempt.SecretPrefix = domain.SecretPrefix(explicit.value)

		integration, err := a.credentials.FindBySecret(ctx, a.Provider(), explicit.value)
		if err != nil {
			return nil, attempt, domain.NewPersistenceError("failed to load integrations", err)
		}
		if integration != nil {
			attempt.IntegrationID = integration.ID
			return integration, attempt, nil
		}
	}

	if signatureHeader == "" {
		if explicit == nil {
			return nil, attempt, domain.NewAuthenticationError(
				"missing_credentials",
				"no webhook secret or signature presented; checked "+strings.Join(attempt.ChannelsChecked, ", "),
			)
		}
		return nil, attempt, domain.NewAuthenticationError("no_matching_integration", "no matching integration")
	}

	attempt.Mode = "signature_fallback"
	attempt.Channel = "header:" + ShopifyHmacHeader
	attempt.SecretPrefix = domain.SecretPrefix(signatureHeader)

	integration, checked, err := a.credentials.FindMatchingCandidate(ctx, a.Provider(), req.Body, signatureHeader, attempt.Discriminator)
	attempt.CandidatesChecked = checked
	if err != nil {
		return nil, attempt, domain.NewPersistenceError("failed to load integrations", err)
	}
	if integration == nil {
		a.logger.Debug().
			Str("shop", attempt.Discriminator).
			Int("candidates", checked).
			Msg("Shopify signature matched no integration")
		return nil, attempt, domain.NewAuthenticationError("no_matching_integration", "no matching integration")
	}

	attempt.IntegrationID = integration.ID
	return integration, attempt, nil
}

// explicitSecret returns the first secret presented through a dedicated channel
func (a *ShopifyAdapter) explicitSecret(req *domain.InboundRequest) *presentedSecret {
	if v := strings.TrimSpace(req.Header.Get(SecretHeader)); v != "" {
		return &presentedSecret{channel: "header:" + SecretHeader, value: v}
	}
	if v := strings.TrimSpace(req.Query.Get(secretQueryParam)); v != "" {
		return &presentedSecret{channel: "query:" + secretQueryParam, value: v}
	}
	if v := strings.TrimSpace(req.Query.Get(altSecretQueryParam)); v != "" {
		return &presentedSecret{channel: "query:" + altSecretQueryParam, value: v}
	}

	var envelope shopifyEnvelope
	if err := json.Unmarshal(req.Body, &envelope); err == nil {
		if v := strings.TrimSpace(envelope.WebhookSecret); v != "" {
			return &presentedSecret{channel: "body:" + secretBodyField, value: v}
		}
	}
	return nil
}

// Normalize maps a Shopify order payload into the internal order shape
func (a *ShopifyAdapter) Normalize(body []byte) (*domain.NormalizedOrder, error) {
	var envelope shopifyEnvelope
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}

	// Totals are checked before the typed decode so a bad value is reported as such
	total, err := parseTotal(envelope.TotalPrice)
	if err != nil {
		return nil, err
	}

	var payload goshopify.Order
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}

	externalOrderID := ""
	if payload.Id != 0 {
		externalOrderID = strconv.FormatUint(payload.Id, 10)
	}

	billing := shopifyAddress(payload.BillingAddress)
	shipping := shopifyAddress(payload.ShippingAddress)

	var customerEmail, customerPhone, given, family string
	if payload.Customer != nil {
		customerEmail = payload.Customer.Email
		customerPhone = payload.Customer.Phone
		given = payload.Customer.FirstName
		family = payload.Customer.LastName
	}
	name := displayName(given, family)
	if name == "" {
		name = displayName(billing.FirstName, billing.LastName)
	}

	items := make([]domain.LineItem, 0, len(payload.LineItems))
	for _, li := range payload.LineItems {
		price := decimal.Zero
		if li.Price != nil {
			price = *li.Price
		}
		productName := li.Title
		if productName == "" {
			productName = li.Name
		}
		items = append(items, domain.LineItem{
			SKU:         strings.TrimSpace(li.SKU),
			ProductName: productName,
			Quantity:    li.Quantity,
			UnitPrice:   price,
		})
	}

	order := &domain.NormalizedOrder{
		Provider:        a.Provider(),
		ExternalOrderID: externalOrderID,
		Customer: domain.CustomerFields{
			Name:  name,
			Email: firstNonEmpty(customerEmail, payload.Email),
			Phone: firstNonEmpty(customerPhone, billing.Phone, shipping.Phone),
			Address: domain.CustomerAddress{
				Billing:  billing,
				Shipping: shipping,
			},
		},
		Order: domain.OrderFields{
			Status:            shopifyStatus(&payload),
			TotalAmount:       total,
			Currency:          payload.Currency,
			ProviderCreatedAt: payload.CreatedAt,
			ProviderUpdatedAt: payload.UpdatedAt,
		},
		Items: items,
	}

	if err := validateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// shopifyStatus derives a single status from Shopify's split financial/fulfillment states
func shopifyStatus(o *goshopify.Order) string {
	if o.CancelledAt != nil {
		return "cancelled"
	}
	if s := string(o.FulfillmentStatus); s != "" {
		return s
	}
	if s := string(o.FinancialStatus); s != "" {
		return s
	}
	return "pending"
}

func shopifyAddress(a *goshopify.Address) domain.Address {
	if a == nil {
		return domain.Address{}
	}
	return domain.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.Province,
		Postcode:  a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}
