package domain

import "time"

// Provider identifies the e-commerce platform that pushes order webhooks
type Provider string

const (
	ProviderWooCommerce Provider = "woocommerce"
	ProviderShopify     Provider = "shopify"
)

// Providers lists every provider the ingestion endpoint accepts
var Providers = []Provider{ProviderWooCommerce, ProviderShopify}

// ParseProvider returns the provider matching name, or false if it is not supported
func ParseProvider(name string) (Provider, bool) {
	for _, p := range Providers {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

func (p Provider) String() string {
	return string(p)
}

// Integration is a registered connection between a tenant and one external store.
// Integrations are managed by the dashboard; the ingestion pipeline only reads them.
type Integration struct {
	ID       string   `json:"id"`
	Provider Provider `json:"provider"`
	Domain   string   `json:"domain"`
	BaseURL  string   `json:"base_url,omitempty"`
	// Secret is an HMAC key or a shared secret, depending on the provider
	Secret string `json:"-"`
	Active bool   `json:"active"`
	// OwnerID is the tenant's internal account, not the shopper
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCandidate reports whether the integration may be used to authenticate requests
func (i *Integration) IsCandidate() bool {
	return i != nil && i.Active && i.Secret != ""
}
