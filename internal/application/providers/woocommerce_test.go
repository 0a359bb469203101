package providers

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"archie-core-order-ingest/internal/application"
	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/repository/memory"
	"archie-core-order-ingest/internal/infrastructure/signature"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wooPayload = `{
  "id": 5001,
  "status": "processing",
  "currency": "EUR",
  "total": "94.98",
  "date_created_gmt": "2024-03-01T10:15:00",
  "date_modified_gmt": "2024-03-01T10:20:00",
  "billing": {"first_name": " Ada ", "last_name": "Lovelace", "email": "ada@example.com", "phone": "", "city": "London"},
  "shipping": {"first_name": "Ada", "last_name": "Lovelace", "phone": "+44 20 0000"},
  "line_items": [
    {"name": "Widget", "sku": "W-1", "quantity": 2, "price": 19.99},
    {"name": "Gadget", "sku": null, "quantity": "1", "price": "55.00"}
  ]
}`

func newWooFixture(t *testing.T, secrets ...string) (*WooCommerceAdapter, []*domain.Integration) {
	t.Helper()
	store := memory.NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var integrations []*domain.Integration
	for i, secret := range secrets {
		integration := &domain.Integration{
			Provider:  domain.ProviderWooCommerce,
			Domain:    "shop.example.com",
			Secret:    secret,
			Active:    true,
			OwnerID:   "owner-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		store.PutIntegration(integration)
		integrations = append(integrations, integration)
	}

	creds := application.NewCredentialStore(store.Integrations(), nil, zerolog.Nop())
	return NewWooCommerceAdapter(creds, zerolog.Nop()), integrations
}

func wooRequest(body, sig, source string) *domain.InboundRequest {
	h := http.Header{}
	if sig != "" {
		h.Set(WooSignatureHeader, sig)
	}
	if source != "" {
		h.Set(WooSourceHeader, source)
	}
	return &domain.InboundRequest{
		Provider: domain.ProviderWooCommerce,
		Header:   h,
		Query:    url.Values{},
		Body:     []byte(body),
	}
}

func TestWooCommerceAdapter_Authenticate(t *testing.T) {
	body := wooPayload
	adapter, integrations := newWooFixture(t, "alpha-secret", "bravo-secret", "charlie-secret")

	tests := []struct {
		name     string
		req      *domain.InboundRequest
		wantID   string
		wantCode string
	}{
		{
			name:   "first candidate",
			req:    wooRequest(body, signature.NewWebhookVerifier("alpha-secret").Sign([]byte(body)), "https://shop.example.com"),
			wantID: integrations[0].ID,
		},
		{
			name:   "last candidate",
			req:    wooRequest(body, signature.NewWebhookVerifier("charlie-secret").Sign([]byte(body)), "https://shop.example.com"),
			wantID: integrations[2].ID,
		},
		{
			name:     "unknown secret",
			req:      wooRequest(body, signature.NewWebhookVerifier("delta-secret").Sign([]byte(body)), "https://shop.example.com"),
			wantCode: "no_matching_integration",
		},
		{
			name:     "missing signature",
			req:      wooRequest(body, "", "https://shop.example.com"),
			wantCode: "missing_credentials",
		},
		{
			name:     "missing source",
			req:      wooRequest(body, signature.NewWebhookVerifier("alpha-secret").Sign([]byte(body)), ""),
			wantCode: "missing_credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integration, attempt, err := adapter.Authenticate(context.Background(), tt.req)
			require.NotNil(t, attempt)
			assert.Equal(t, "signature", attempt.Mode)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
				assert.Equal(t, tt.wantCode, domain.AsIngestError(err).Code)
				assert.Nil(t, integration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, integration.ID)
			assert.Equal(t, tt.wantID, attempt.IntegrationID)
		})
	}
}

func TestWooCommerceAdapter_Authenticate_NoCandidates(t *testing.T) {
	adapter, _ := newWooFixture(t)
	req := wooRequest(wooPayload, signature.NewWebhookVerifier("alpha").Sign([]byte(wooPayload)), "https://shop.example.com")

	_, attempt, err := adapter.Authenticate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
	assert.Equal(t, 0, attempt.CandidatesChecked)
}

func TestWooCommerceAdapter_Normalize(t *testing.T) {
	adapter, _ := newWooFixture(t)

	order, err := adapter.Normalize([]byte(wooPayload))
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderWooCommerce, order.Provider)
	assert.Equal(t, "5001", order.ExternalOrderID)
	assert.Equal(t, "Ada Lovelace", order.Customer.Name)
	assert.Equal(t, "ada@example.com", order.Customer.Email)
	assert.Equal(t, "+44 20 0000", order.Customer.Phone)
	assert.Equal(t, "London", order.Customer.Address.Billing.City)
	assert.Equal(t, "processing", order.Order.Status)
	assert.Equal(t, "EUR", order.Order.Currency)
	assert.True(t, decimal.RequireFromString("94.98").Equal(order.Order.TotalAmount))
	require.NotNil(t, order.Order.ProviderCreatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), *order.Order.ProviderCreatedAt)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "W-1", order.Items[0].SKU)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("19.99").Equal(order.Items[0].UnitPrice))
	assert.Equal(t, "", order.Items[1].SKU)
	assert.Equal(t, 1, order.Items[1].Quantity)
}

func TestWooCommerceAdapter_Normalize_Rejects(t *testing.T) {
	adapter, _ := newWooFixture(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "empty body", body: "  ", wantCode: "empty_body"},
		{name: "malformed", body: `{"id":`, wantCode: "malformed_json"},
		{name: "missing total", body: `{"id":1,"status":"processing","billing":{"email":"a@b.c"}}`, wantCode: "missing_field"},
		{name: "non numeric total", body: `{"id":1,"status":"processing","total":"abc","billing":{"email":"a@b.c"}}`, wantCode: "invalid_total"},
		{name: "missing id", body: `{"status":"processing","total":"1.00","billing":{"email":"a@b.c"}}`, wantCode: "missing_field"},
		{name: "missing email", body: `{"id":1,"status":"processing","total":"1.00"}`, wantCode: "missing_field"},
		{name: "negative quantity", body: `{"id":1,"status":"processing","total":"1.00","billing":{"email":"a@b.c"},"line_items":[{"name":"x","quantity":-1,"price":"1"}]}`, wantCode: "invalid_quantity"},
		{name: "fractional quantity", body: `{"id":1,"status":"processing","total":"1.00","billing":{"email":"a@b.c"},"line_items":[{"name":"x","quantity":1.5,"price":"1"}]}`, wantCode: "invalid_quantity"},
		{name: "quantity beyond int64", body: `{"id":1,"status":"processing","total":"1.00","billing":{"email":"a@b.c"},"line_items":[{"name":"x","quantity":"99999999999999999999","price":"1"}]}`, wantCode: "invalid_quantity"},
		{name: "quantity beyond int32", body: `{"id":1,"status":"processing","total":"1.00","billing":{"email":"a@b.c"},"line_items":[{"name":"x","quantity":2147483648,"price":"1"}]}`, wantCode: "invalid_quantity"},
		{name: "non-numeric quantity", body: `{"id":1,"status":"processing","total":"1.00","billing":{"email":"a@b.c"},"line_items":[{"name":"x","quantity":"lots","price":"1"}]}`, wantCode: "malformed_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.Normalize([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, tt.wantCode, domain.AsIngestError(err).Code)
		})
	}
}

func TestWooCommerceAdapter_Normalize_CanonicalID(t *testing.T) {
	adapter, _ := newWooFixture(t)

	for _, raw := range []string{`1001`, `1001.0`, `"1001"`, `1.001e3`} {
		t.Run(raw, func(t *testing.T) {
			order, err := adapter.Normalize([]byte(`{"id":` + raw + `,"status":"pending","total":"0","billing":{"email":"a@b.c"}}`))
			require.NoError(t, err)
			assert.Equal(t, "1001", order.ExternalOrderID)
		})
	}
}

func TestWooCommerceAdapter_CanHandle(t *testing.T) {
	adapter, _ := newWooFixture(t)

	assert.True(t, adapter.CanHandle(""))
	assert.True(t, adapter.CanHandle("order.created"))
	assert.True(t, adapter.CanHandle("order.updated"))
	assert.False(t, adapter.CanHandle("product.updated"))
}
