package ports

import (
	"context"

	"archie-core-order-ingest/internal/domain"
)

// CustomerRepository defines persistence for customers.
// (Email, OwnerID) is unique; Create returns domain.ErrDuplicateKey when it is taken.
type CustomerRepository interface {
	FindByEmail(ctx context.Context, ownerID string, email string) (*domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) error
	// UpdateContact refreshes contact fields and adds incrementOrders to the order counter
	UpdateContact(ctx context.Context, id string, fields domain.CustomerFields, incrementOrders int) (*domain.Customer, error)
}

// OrderRepository defines persistence for orders.
// (IntegrationID, ExternalOrderID) is unique; Create returns domain.ErrDuplicateKey when it is taken.
type OrderRepository interface {
	FindByExternalID(ctx context.Context, integrationID string, externalOrderID string) (*domain.Order, error)
	Create(ctx context.Context, order *domain.Order) error
	// Update overwrites the mutable fields and sets order.ItemsRevision to the incremented stored revision
	Update(ctx context.Context, order *domain.Order) error
	AttachCustomer(ctx context.Context, orderID string, customerID string) error
	// ItemsRevision returns the stored items revision of an order
	ItemsRevision(ctx context.Context, orderID string) (int64, error)
}

// OrderItemRepository defines persistence for order line items
type OrderItemRepository interface {
	// DeleteStale removes the items of an order tagged with a revision lower than keep
	DeleteStale(ctx context.Context, orderID string, keep int64) (int64, error)
	InsertMany(ctx context.Context, items []domain.OrderItem) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}

// AuditSink records structured request/step/error/response events.
// Implementations must not fail the request; errors are reported to the caller for logging only.
type AuditSink interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// Notifier delivers an order summary to an external channel
type Notifier interface {
	Send(ctx context.Context, destination string, summary domain.OrderSummary) error
}
