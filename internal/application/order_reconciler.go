package application

import (
	"context"
	"errors"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// OrderReconciler upserts orders keyed by (integration, external order id)
type OrderReconciler struct {
	orderRepo ports.OrderRepository
	logger    zerolog.Logger
}

// NewOrderReconciler creates a new order reconciler
func NewOrderReconciler(orderRepo ports.OrderRepository, logger zerolog.Logger) *OrderReconciler {
	return &OrderReconciler{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Reconcile finds or creates the order and overwrites its mutable fields.
// isNew is true only for the request whose insert created the row.
// Every write raises ItemsRevision in the store, so the last writer owns the line items.
func (r *OrderReconciler) Reconcile(
	ctx context.Context,
	integration *domain.Integration,
	externalOrderID string,
	fields domain.OrderFields,
) (*domain.Order, bool, error) {
	existing, err := r.orderRepo.FindByExternalID(ctx, integration.ID, externalOrderID)
	if err != nil {
		return nil, false, domain.NewPersistenceError("failed to load order", err)
	}
	if existing != nil {
		if err := r.update(ctx, existing, fields); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	order := &domain.Order{
		OwnerID:         integration.OwnerID,
		IntegrationID:   integration.ID,
		ExternalOrderID: externalOrderID,
		Source:          integration.Provider,
		ItemsRevision:   1,
	}
	order.Apply(fields)

	err = r.orderRepo.Create(ctx, order)
	if err == nil {
		r.logger.Info().
			Str("order_id", order.ID).
			Str("external_order_id", externalOrderID).
			Str("integration_id", integration.ID).
			Msg("Order created")
		return order, true, nil
	}
	if !errors.Is(err, domain.ErrDuplicateKey) {
		return nil, false, domain.NewPersistenceError("failed to create order", err)
	}

	// A concurrent delivery inserted the same order first
	existing, err = r.orderRepo.FindByExternalID(ctx, integration.ID, externalOrderID)
	if err != nil {
		return nil, false, domain.NewPersistenceError("failed to load order", err)
	}
	if existing == nil {
		return nil, false, domain.NewPersistenceError("failed to create order", domain.ErrDuplicateKey)
	}

	r.logger.Debug().
		Str("order_id", existing.ID).
		Str("external_order_id", externalOrderID).
		Msg("Order insert lost race, updating")

	if err := r.update(ctx, existing, fields); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// AttachCustomer links the order to customerID when the link differs
func (r *OrderReconciler) AttachCustomer(ctx context.Context, order *domain.Order, customerID string) error {
	if order.CustomerID == customerID {
		return nil
	}
	if err := r.orderRepo.AttachCustomer(ctx, order.ID, customerID); err != nil {
		return domain.NewPersistenceError("failed to link customer", err)
	}
	order.CustomerID = customerID
	return nil
}

func (r *OrderReconciler) update(ctx context.Context, order *domain.Order, fields domain.OrderFields) error {
	order.Apply(fields)
	if err := r.orderRepo.Update(ctx, order); err != nil {
		return domain.NewPersistenceError("failed to update order", err)
	}
	return nil
}
