package application

import (
	"context"
	"errors"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"github.com/rs/zerolog"
)

// CustomerReconciler finds or creates the tenant's customer for an order
type CustomerReconciler struct {
	customerRepo ports.CustomerRepository
	logger       zerolog.Logger
}

// NewCustomerReconciler creates a new customer reconciler
func NewCustomerReconciler(customerRepo ports.CustomerRepository, logger zerolog.Logger) *CustomerReconciler {
	return &CustomerReconciler{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// Reconcile refreshes the contact fields of the customer matched by (email, owner), creating
// it when absent. The order counter moves only when isNewOrder is true.
func (r *CustomerReconciler) Reconcile(
	ctx context.Context,
	integration *domain.Integration,
	fields domain.CustomerFields,
	isNewOrder bool,
) (*domain.Customer, error) {
	existing, err := r.customerRepo.FindByEmail(ctx, integration.OwnerID, fields.Email)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load customer", err)
	}
	if existing != nil {
		return r.update(ctx, existing.ID, fields, isNewOrder)
	}

	customer := &domain.Customer{
		OwnerID:     integration.OwnerID,
		Name:        fields.Name,
		Email:       fields.Email,
		Phone:       fields.Phone,
		Address:     fields.Address,
		Source:      integration.Provider,
		TotalOrders: 1,
	}

	err = r.customerRepo.Create(ctx, customer)
	if err == nil {
		r.logger.Info().
			Str("customer_id", customer.ID).
			Str("owner_id", customer.OwnerID).
			Msg("Customer created")
		return customer, nil
	}
	if !errors.Is(err, domain.ErrDuplicateKey) {
		return nil, domain.NewPersistenceError("failed to create customer", err)
	}

	existing, err = r.customerRepo.FindByEmail(ctx, integration.OwnerID, fields.Email)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load customer", err)
	}
	if existing == nil {
		return nil, domain.NewPersistenceError("failed to create customer", domain.ErrDuplicateKey)
	}

	r.logger.Debug().
		Str("customer_id", existing.ID).
		Msg("Customer insert lost race, updating")

	return r.update(ctx, existing.ID, fields, isNewOrder)
}

func (r *CustomerReconciler) update(ctx context.Context, id string, fields domain.CustomerFields, isNewOrder bool) (*domain.Customer, error) {
	increment := 0
	if isNewOrder {
		increment = 1
	}

	customer, err := r.customerRepo.UpdateContact(ctx, id, fields, increment)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to update customer", err)
	}
	if customer == nil {
		return nil, domain.NewPersistenceError("failed to update customer", errors.New("customer disappeared during update"))
	}
	return customer, nil
}
