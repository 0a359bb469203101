package application

import (
	"context"
	"fmt"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/signature"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// CredentialStore authenticates webhook requests against the registered integration secrets.
// Callers see a single lookup operation; the candidate iteration strategy stays in here.
type CredentialStore struct {
	integrationRepo ports.IntegrationRepository
	hints           ports.CandidateHintCache
	logger          zerolog.Logger
}

// NewCredentialStore creates a new credential store. hints may be nil.
func NewCredentialStore(
	integrationRepo ports.IntegrationRepository,
	hints ports.CandidateHintCache,
	logger zerolog.Logger,
) *CredentialStore {
	return &CredentialStore{
		integrationRepo: integrationRepo,
		hints:           hints,
		logger:          logger,
	}
}

// FindMatchingCandidate returns the first active integration of provider whose secret
// produces signature over body. The integration last matched for discriminator is loaded
// by id and tried first, so a warm hint costs no candidate listing; every candidate is
// still verified. Returns (nil, checked, nil) when nothing matches.
func (s *CredentialStore) FindMatchingCandidate(
	ctx context.Context,
	provider domain.Provider,
	body []byte,
	providedSignature string,
	discriminator string,
) (*domain.Integration, int, error) {
	checked := 0
	hinted := s.hintedCandidate(ctx, provider, discriminator)
	if hinted != nil {
		checked++
		if signature.NewWebhookVerifier(hinted.Secret).Verify(body, providedSignature) == nil {
			return hinted, checked, nil
		}
	}

	candidates, err := s.integrationRepo.ListActiveByProvider(ctx, provider)
	if err != nil {
		return nil, checked, fmt.Errorf("failed to list integrations: %w", err)
	}

	for _, candidate := range candidates {
		if !candidate.IsCandidate() || (hinted != nil && candidate.ID == hinted.ID) {
			continue
		}
		checked++
		if err := signature.NewWebhookVerifier(candidate.Secret).Verify(body, providedSignature); err != nil {
			continue
		}

		s.rememberHint(ctx, provider, discriminator, candidate.ID)
		return candidate, checked, nil
	}

	return nil, checked, nil
}

// FindBySecret returns the active integration of provider whose secret equals secret
func (s *CredentialStore) FindBySecret(ctx context.Context, provider domain.Provider, secret string) (*domain.Integration, error) {
	if secret == "" {
		return nil, nil
	}

	integration, err := s.integrationRepo.GetActiveBySecret(ctx, provider, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	if !integration.IsCandidate() {
		return nil, nil
	}

	return integration, nil
}

// hintedCandidate loads the integration last matched for discriminator. Cache and store
// errors are logged and treated as a miss; a hint to an integration that is gone, inactive
// or registered for another provider is ignored.
func (s *CredentialStore) hintedCandidate(ctx context.Context, provider domain.Provider, discriminator string) *domain.Integration {
	if s.hints == nil || discriminator == "" {
		return nil
	}

	hintedID, err := s.hints.Get(ctx, provider, discriminator)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", provider.String()).Msg("Failed to read candidate hint")
		return nil
	}
	if hintedID == "" {
		return nil
	}

	integration, err := s.integrationRepo.GetByID(ctx, hintedID)
	if err != nil {
		s.logger.Warn().Err(err).Str("integration_id", hintedID).Msg("Failed to load hinted integration")
		return nil
	}
	if integration == nil || integration.Provider != provider || !integration.IsCandidate() {
		return nil
	}
	return integration
}

func (s *CredentialStore) rememberHint(ctx context.Context, provider domain.Provider, discriminator string, integrationID string) {
	if s.hints == nil || discriminator == "" {
		return
	}
	if err := s.hints.Set(ctx, provider, discriminator, integrationID); err != nil {
		s.logger.Warn().Err(err).Str("provider", provider.String()).Msg("Failed to store candidate hint")
	}
}
