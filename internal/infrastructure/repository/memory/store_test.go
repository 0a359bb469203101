package memory

import (
	"context"
	"testing"

	"archie-core-order-ingest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIntegrations(t *testing.T) {
	s := NewStore()
	n, err := s.LoadIntegrations([]byte(`[
		{"provider":"woocommerce","domain":"shop.example.com","secret":"woo","ownerId":"owner-1"},
		{"id":"fixed","provider":"shopify","domain":"demo.myshopify.com","secret":"shp","ownerId":"owner-1","active":false}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, err := s.Integrations().ListActiveByProvider(context.Background(), domain.ProviderWooCommerce)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "woo", active[0].Secret)
	assert.NotEmpty(t, active[0].ID)

	inactive, err := s.Integrations().GetByID(context.Background(), "fixed")
	require.NoError(t, err)
	require.NotNil(t, inactive)
	assert.False(t, inactive.Active)
}

func TestLoadIntegrations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"malformed", `{`, "failed to decode integrations"},
		{"provider", `[{"provider":"magento","ownerId":"o"}]`, "unknown provider"},
		{"owner", `[{"provider":"shopify"}]`, "ownerId is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore().LoadIntegrations([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Customers().Create(ctx, &domain.Customer{OwnerID: "o", Email: "a@example.com"}))
	assert.ErrorIs(t, s.Customers().Create(ctx, &domain.Customer{OwnerID: "o", Email: "a@example.com"}), domain.ErrDuplicateKey)
	require.NoError(t, s.Customers().Create(ctx, &domain.Customer{OwnerID: "other", Email: "a@example.com"}))

	require.NoError(t, s.Orders().Create(ctx, &domain.Order{IntegrationID: "i", ExternalOrderID: "1"}))
	assert.ErrorIs(t, s.Orders().Create(ctx, &domain.Order{IntegrationID: "i", ExternalOrderID: "1"}), domain.ErrDuplicateKey)
	require.NoError(t, s.Orders().Create(ctx, &domain.Order{IntegrationID: "j", ExternalOrderID: "1"}))

	assert.Equal(t, 2, s.CountCustomers())
	assert.Equal(t, 2, s.CountOrders())
}

func TestStore_UpdateMissingOrder(t *testing.T) {
	err := NewStore().Orders().Update(context.Background(), &domain.Order{ID: "missing"})
	assert.Error(t, err)
}

func TestStore_DeleteStaleItems(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	order := &domain.Order{IntegrationID: "i", ExternalOrderID: "1", ItemsRevision: 1}
	require.NoError(t, s.Orders().Create(ctx, order))
	require.NoError(t, s.Orders().Update(ctx, order))
	assert.Equal(t, int64(2), order.ItemsRevision)

	rev, err := s.Orders().ItemsRevision(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	require.NoError(t, s.OrderItems().InsertMany(ctx, []domain.OrderItem{
		{OrderID: order.ID, SKU: "OLD", Revision: 1},
		{OrderID: order.ID, SKU: "NEW", Revision: 2},
		{OrderID: order.ID, SKU: "NEWER", Revision: 3},
		{OrderID: "other", SKU: "KEEP", Revision: 1},
	}))

	deleted, err := s.OrderItems().DeleteStale(ctx, order.ID, rev)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	items, err := s.OrderItems().ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "NEW", items[0].SKU)
	assert.Equal(t, "NEWER", items[1].SKU)
	assert.Equal(t, 3, s.CountItems())

	_, err = s.Orders().ItemsRevision(ctx, "missing")
	assert.Error(t, err)
}
