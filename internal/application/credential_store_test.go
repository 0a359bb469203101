package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/repository/memory"
	"archie-core-order-ingest/internal/infrastructure/signature"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHints struct {
	values map[string]string
	getErr error
	sets   int
}

func newFakeHints() *fakeHints {
	return &fakeHints{values: make(map[string]string)}
}

func (h *fakeHints) Get(_ context.Context, provider domain.Provider, discriminator string) (string, error) {
	if h.getErr != nil {
		return "", h.getErr
	}
	return h.values[provider.String()+"|"+discriminator], nil
}

func (h *fakeHints) Set(_ context.Context, provider domain.Provider, discriminator string, integrationID string) error {
	h.sets++
	h.values[provider.String()+"|"+discriminator] = integrationID
	return nil
}

func seedIntegrations(store *memory.Store, provider domain.Provider, secrets ...string) []*domain.Integration {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*domain.Integration, 0, len(secrets))
	for i, secret := range secrets {
		integration := &domain.Integration{
			Provider:  provider,
			Secret:    secret,
			Active:    true,
			OwnerID:   "owner",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		store.PutIntegration(integration)
		out = append(out, integration)
	}
	return out
}

func TestCredentialStore_FindMatchingCandidate(t *testing.T) {
	body := []byte(`{"id":1}`)
	secrets := []string{"s-one", "s-two", "s-three", ""}

	for i, secret := range secrets[:3] {
		t.Run(secret, func(t *testing.T) {
			store := memory.NewStore()
			integrations := seedIntegrations(store, domain.ProviderWooCommerce, secrets...)
			creds := NewCredentialStore(store.Integrations(), nil, zerolog.Nop())

			got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier(secret).Sign(body), "")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, integrations[i].ID, got.ID)
			assert.Equal(t, i+1, checked)
		})
	}

	t.Run("no match skips empty secrets", func(t *testing.T) {
		store := memory.NewStore()
		seedIntegrations(store, domain.ProviderWooCommerce, secrets...)
		creds := NewCredentialStore(store.Integrations(), nil, zerolog.Nop())

		got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("other").Sign(body), "")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 3, checked)
	})

	t.Run("inactive never matches", func(t *testing.T) {
		store := memory.NewStore()
		store.PutIntegration(&domain.Integration{Provider: domain.ProviderWooCommerce, Secret: "s-off", Active: false})
		creds := NewCredentialStore(store.Integrations(), nil, zerolog.Nop())

		got, _, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("s-off").Sign(body), "")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCredentialStore_HintOrdering(t *testing.T) {
	body := []byte(`{"id":7}`)
	store := memory.NewStore()
	integrations := seedIntegrations(store, domain.ProviderWooCommerce, "s-one", "s-two", "s-three")
	hints := newFakeHints()
	creds := NewCredentialStore(store.Integrations(), hints, zerolog.Nop())
	sig := signature.NewWebhookVerifier("s-three").Sign(body)

	got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, sig, "https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, integrations[2].ID, got.ID)
	assert.Equal(t, 3, checked)
	assert.Equal(t, 1, hints.sets)

	got, checked, err = creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, sig, "https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, integrations[2].ID, got.ID)
	assert.Equal(t, 1, checked)
}

type countingIntegrations struct {
	ports.IntegrationRepository
	lists int
}

func (r *countingIntegrations) ListActiveByProvider(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error) {
	r.lists++
	return r.IntegrationRepository.ListActiveByProvider(ctx, provider)
}

func TestCredentialStore_HintHitSkipsListing(t *testing.T) {
	body := []byte(`{"id":7}`)
	store := memory.NewStore()
	integrations := seedIntegrations(store, domain.ProviderWooCommerce, "s-one", "s-two")
	hints := newFakeHints()
	hints.values["woocommerce|shop"] = integrations[1].ID
	repo := &countingIntegrations{IntegrationRepository: store.Integrations()}
	creds := NewCredentialStore(repo, hints, zerolog.Nop())

	got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("s-two").Sign(body), "shop")
	require.NoError(t, err)
	assert.Equal(t, integrations[1].ID, got.ID)
	assert.Equal(t, 1, checked)
	assert.Equal(t, 0, repo.lists)
	assert.Equal(t, 0, hints.sets)
}

func TestCredentialStore_UnusableHintFallsBack(t *testing.T) {
	body := []byte(`{"id":7}`)

	tests := []struct {
		name string
		hint func(store *memory.Store) string
	}{
		{"unknown id", func(*memory.Store) string { return "gone" }},
		{"inactive", func(store *memory.Store) string {
			off := &domain.Integration{Provider: domain.ProviderWooCommerce, Secret: "s-one", Active: false}
			store.PutIntegration(off)
			return off.ID
		}},
		{"other provider", func(store *memory.Store) string {
			shop := &domain.Integration{Provider: domain.ProviderShopify, Secret: "s-one", Active: true}
			store.PutIntegration(shop)
			return shop.ID
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			integrations := seedIntegrations(store, domain.ProviderWooCommerce, "s-one", "s-two")
			hints := newFakeHints()
			hints.values["woocommerce|shop"] = tt.hint(store)
			repo := &countingIntegrations{IntegrationRepository: store.Integrations()}
			creds := NewCredentialStore(repo, hints, zerolog.Nop())

			got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("s-one").Sign(body), "shop")
			require.NoError(t, err)
			assert.Equal(t, integrations[0].ID, got.ID)
			assert.Equal(t, 1, checked)
			assert.Equal(t, 1, repo.lists)
			assert.Equal(t, integrations[0].ID, hints.values["woocommerce|shop"])
		})
	}
}

func TestCredentialStore_StaleHintStillVerifies(t *testing.T) {
	body := []byte(`{"id":7}`)
	store := memory.NewStore()
	integrations := seedIntegrations(store, domain.ProviderWooCommerce, "s-one", "s-two")
	hints := newFakeHints()
	hints.values["woocommerce|shop"] = integrations[1].ID
	creds := NewCredentialStore(store.Integrations(), hints, zerolog.Nop())

	got, checked, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("s-one").Sign(body), "shop")
	require.NoError(t, err)
	assert.Equal(t, integrations[0].ID, got.ID)
	assert.Equal(t, 2, checked)
	assert.Equal(t, integrations[0].ID, hints.values["woocommerce|shop"])
}

func TestCredentialStore_HintErrorIgnored(t *testing.T) {
	body := []byte(`{"id":7}`)
	store := memory.NewStore()
	integrations := seedIntegrations(store, domain.ProviderWooCommerce, "s-one", "s-two")
	hints := newFakeHints()
	hints.getErr = errors.New("redis down")
	creds := NewCredentialStore(store.Integrations(), hints, zerolog.Nop())

	got, _, err := creds.FindMatchingCandidate(context.Background(), domain.ProviderWooCommerce, body, signature.NewWebhookVerifier("s-two").Sign(body), "shop")
	require.NoError(t, err)
	assert.Equal(t, integrations[1].ID, got.ID)
}

func TestCredentialStore_FindBySecret(t *testing.T) {
	store := memory.NewStore()
	integrations := seedIntegrations(store, domain.ProviderShopify, "shpss_a", "shpss_b")
	store.PutIntegration(&domain.Integration{Provider: domain.ProviderShopify, Secret: "shpss_off", Active: false})
	creds := NewCredentialStore(store.Integrations(), nil, zerolog.Nop())

	tests := []struct {
		name     string
		provider domain.Provider
		secret   string
		wantID   string
	}{
		{name: "exact", provider: domain.ProviderShopify, secret: "shpss_b", wantID: integrations[1].ID},
		{name: "empty", provider: domain.ProviderShopify, secret: ""},
		{name: "inactive", provider: domain.ProviderShopify, secret: "shpss_off"},
		{name: "prefix only", provider: domain.ProviderShopify, secret: "shpss_"},
		{name: "other provider", provider: domain.ProviderWooCommerce, secret: "shpss_a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := creds.FindBySecret(context.Background(), tt.provider, tt.secret)
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}
