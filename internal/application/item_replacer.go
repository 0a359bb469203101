package application

import (
	"context"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// ItemReplacer makes an order's stored line items equal to the latest delivery
type ItemReplacer struct {
	itemRepo  ports.OrderItemRepository
	orderRepo ports.OrderRepository
	logger    zerolog.Logger
}

// NewItemReplacer creates a new line item replacer
func NewItemReplacer(itemRepo ports.OrderItemRepository, orderRepo ports.OrderRepository, logger zerolog.Logger) *ItemReplacer {
	return &ItemReplacer{
		itemRepo:  itemRepo,
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// Replace inserts items tagged with the order's ItemsRevision, then removes every item
// of the order tagged below the revision currently stored on the order.
// Revisions only grow, so a stale read can never remove a newer write's items and
// racing deliveries of one order converge on the items of the last order write.
func (r *ItemReplacer) Replace(ctx context.Context, order *domain.Order, items []domain.LineItem) ([]domain.OrderItem, error) {
	rows := make([]domain.OrderItem, 0, len(items))
	for _, li := range items {
		rows = append(rows, domain.OrderItem{
			OrderID:     order.ID,
			SKU:         li.SKU,
			ProductName: li.ProductName,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Revision:    order.ItemsRevision,
		})
	}

	if len(rows) > 0 {
		if err := r.itemRepo.InsertMany(ctx, rows); err != nil {
			return nil, domain.NewPersistenceError("failed to insert order items", err)
		}
	}

	current, err := r.orderRepo.ItemsRevision(ctx, order.ID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load order items revision", err)
	}

	deleted, err := r.itemRepo.DeleteStale(ctx, order.ID, current)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to delete order items", err)
	}

	event := r.logger.Debug().
		Str("order_id", order.ID).
		Int64("deleted", deleted).
		Int("inserted", len(rows))
	if current > order.ItemsRevision {
		event = event.Bool("superseded", true)
	}
	event.Msg("Order items replaced")

	return rows, nil
}
