package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a tenant's order, unique per (IntegrationID, ExternalOrderID)
type Order struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"owner_id"`
	IntegrationID     string          `json:"integration_id"`
	CustomerID        string          `json:"customer_id"`
	ExternalOrderID   string          `json:"external_order_id"`
	Status            string          `json:"status"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency,omitempty"`
	Source            Provider        `json:"source"`
	ProviderCreatedAt *time.Time      `json:"provider_created_at,omitempty"`
	ProviderUpdatedAt *time.Time      `json:"provider_updated_at,omitempty"`
	// ItemsRevision grows by one on every order write; the highest revision owns the line items
	ItemsRevision int64     `json:"items_revision"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Apply overwrites the mutable fields of an order with the latest delivery
func (o *Order) Apply(fields OrderFields) {
	o.Status = fields.Status
	o.TotalAmount = fields.TotalAmount
	o.Currency = fields.Currency
	o.ProviderCreatedAt = fields.ProviderCreatedAt
	o.ProviderUpdatedAt = fields.ProviderUpdatedAt
	if fields.CustomerID != "" {
		o.CustomerID = fields.CustomerID
	}
}

// OrderFields are the order values carried by one delivery
type OrderFields struct {
	Status            string          `json:"status" validate:"required"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency,omitempty"`
	ProviderCreatedAt *time.Time      `json:"provider_created_at,omitempty"`
	ProviderUpdatedAt *time.Time      `json:"provider_updated_at,omitempty"`
	CustomerID        string          `json:"customer_id,omitempty"`
}

// OrderItem is a line item owned exclusively by one order
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Revision    int64           `json:"revision"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LineItem is a provider line item after normalization
type LineItem struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"gte=0,lte=2147483647"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// NormalizedOrder is the provider-agnostic shape of one order webhook
type NormalizedOrder struct {
	Provider        Provider       `json:"provider"`
	ExternalOrderID string         `json:"external_order_id" validate:"required"`
	Customer        CustomerFields `json:"customer"`
	Order           OrderFields    `json:"order"`
	Items           []LineItem     `json:"items" validate:"dive"`
}

// OrderSummary is the payload announced to the notification channel
type OrderSummary struct {
	OwnerID         string          `json:"owner_id"`
	Provider        Provider        `json:"provider"`
	OrderID         string          `json:"order_id"`
	ExternalOrderID string          `json:"external_order_id"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        string          `json:"currency,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	ItemsCount      int             `json:"items_count"`
	IsNew           bool            `json:"is_new"`
}
