package ports

import (
	"context"

	"archie-core-order-ingest/internal/domain"
)

// IntegrationRepository defines read access to tenant integrations
type IntegrationRepository interface {
	// ListActiveByProvider returns active integrations of a provider, oldest first
	ListActiveByProvider(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error)

	// GetActiveBySecret returns the active integration whose secret equals secret, or nil
	GetActiveBySecret(ctx context.Context, provider domain.Provider, secret string) (*domain.Integration, error)

	// GetByID retrieves an integration by id, or nil if it does not exist
	GetByID(ctx context.Context, id string) (*domain.Integration, error)
}

// CandidateHintCache remembers which integration last authenticated a discriminator
// (store URL or shop domain) so the resolver can try it first
type CandidateHintCache interface {
	Get(ctx context.Context, provider domain.Provider, discriminator string) (string, error)
	Set(ctx context.Context, provider domain.Provider, discriminator string, integrationID string) error
}
