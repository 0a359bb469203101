package memory

import (
	"encoding/json"
	"fmt"

	"archie-core-order-ingest/internal/domain"
)

type seedIntegration struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Domain   string `json:"domain"`
	BaseURL  string `json:"baseUrl"`
	Secret   string `json:"secret"`
	Active   *bool  `json:"active"`
	OwnerID  string `json:"ownerId"`
}

// LoadIntegrations registers the integrations in a JSON array. Active defaults to true.
func (s *Store) LoadIntegrations(data []byte) (int, error) {
	var seeds []seedIntegration
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("failed to decode integrations: %w", err)
	}

	for i, seed := range seeds {
		provider, ok := domain.ParseProvider(seed.Provider)
		if !ok {
			return i, fmt.Errorf("integration %d: unknown provider %q", i, seed.Provider)
		}
		if seed.OwnerID == "" {
			return i, fmt.Errorf("integration %d: ownerId is required", i)
		}
		active := seed.Active == nil || *seed.Active
		s.PutIntegration(&domain.Integration{
			ID:       seed.ID,
			Provider: provider,
			Domain:   seed.Domain,
			BaseURL:  seed.BaseURL,
			Secret:   seed.Secret,
			Active:   active,
			OwnerID:  seed.OwnerID,
		})
	}
	return len(seeds), nil
}
