package ports

import (
	"context"

	"archie-core-order-ingest/internal/domain"
)

// ProviderAdapter supplies the two provider-specific stages of the ingestion pipeline.
// Everything after Normalize is provider-agnostic.
type ProviderAdapter interface {
	Provider() domain.Provider

	// CanHandle reports whether topic is an order event; an empty topic is accepted
	CanHandle(topic string) bool

	// Authenticate resolves the request to exactly one active integration.
	// The returned attempt is filled in on success and on failure.
	Authenticate(ctx context.Context, req *domain.InboundRequest) (*domain.Integration, *domain.AuthAttempt, error)

	// Normalize maps the raw provider payload into the internal order shape
	Normalize(body []byte) (*domain.NormalizedOrder, error)
}

// CredentialMatcher authenticates against the set of registered integration secrets
type CredentialMatcher interface {
	// FindMatchingCandidate returns the first active integration whose secret signs body
	// with signature, and how many candidates were checked
	FindMatchingCandidate(ctx context.Context, provider domain.Provider, body []byte, signature string, discriminator string) (*domain.Integration, int, error)

	// FindBySecret returns the active integration whose secret equals secret, or nil
	FindBySecret(ctx context.Context, provider domain.Provider, secret string) (*domain.Integration, error)
}
