// Package memory is an in-process store with the same uniqueness rules as the Mongo
// repositories. It backs STORE_DRIVER=memory and pipeline tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/ports"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one lock
type Store struct {
	mu           sync.RWMutex
	integrations map[string]*domain.Integration
	customers    map[string]*domain.Customer
	orders       map[string]*domain.Order
	items        map[string][]domain.OrderItem
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		integrations: make(map[string]*domain.Integration),
		customers:    make(map[string]*domain.Customer),
		orders:       make(map[string]*domain.Order),
		items:        make(map[string][]domain.OrderItem),
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// PutIntegration registers or replaces an integration
func (s *Store) PutIntegration(integration *domain.Integration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *integration
	if c.ID == "" {
		c.ID = newID()
		integration.ID = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.integrations[c.ID] = &c
}

// Integrations returns the integration repository view of the store
func (s *Store) Integrations() ports.IntegrationRepository { return integrationRepo{s} }

// Customers returns the customer repository view of the store
func (s *Store) Customers() ports.CustomerRepository { return customerRepo{s} }

// Orders returns the order repository view of the store
func (s *Store) Orders() ports.OrderRepository { return orderRepo{s} }

// OrderItems returns the order item repository view of the store
func (s *Store) OrderItems() ports.OrderItemRepository { return itemRepo{s} }

// CountOrders returns the number of stored orders
func (s *Store) CountOrders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// CountCustomers returns the number of stored customers
func (s *Store) CountCustomers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

// CountItems returns the number of stored order items across all orders
func (s *Store) CountItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, items := range s.items {
		n += len(items)
	}
	return n
}

type integrationRepo struct{ s *Store }

func (r integrationRepo) ListActiveByProvider(_ context.Context, provider domain.Provider) ([]*domain.Integration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Integration
	for _, i := range r.s.integrations {
		if i.Provider == provider && i.Active {
			c := *i
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (r integrationRepo) GetActiveBySecret(_ context.Context, provider domain.Provider, secret string) (*domain.Integration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, i := range r.s.integrations {
		if i.Provider == provider && i.Active && i.Secret == secret {
			c := *i
			return &c, nil
		}
	}
	return nil, nil
}

func (r integrationRepo) GetByID(_ context.Context, id string) (*domain.Integration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if i, ok := r.s.integrations[id]; ok {
		c := *i
		return &c, nil
	}
	return nil, nil
}

type customerRepo struct{ s *Store }

func (r customerRepo) FindByEmail(_ context.Context, ownerID string, email string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.OwnerID == ownerID && c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r customerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.customers {
		if c.OwnerID == customer.OwnerID && c.Email == customer.Email {
			return domain.ErrDuplicateKey
		}
	}

	now := time.Now()
	customer.ID = newID()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	c := *customer
	r.s.customers[c.ID] = &c
	return nil
}

func (r customerRepo) UpdateContact(_ context.Context, id string, fields domain.CustomerFields, incrementOrders int) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	c.Name = fields.Name
	c.Phone = fields.Phone
	c.Address = fields.Address
	c.TotalOrders += incrementOrders
	c.UpdatedAt = time.Now()

	cp := *c
	return &cp, nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) FindByExternalID(_ context.Context, integrationID string, externalOrderID string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, o := range r.s.orders {
		if o.IntegrationID == integrationID && o.ExternalOrderID == externalOrderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r orderRepo) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.orders {
		if o.IntegrationID == order.IntegrationID && o.ExternalOrderID == order.ExternalOrderID {
			return domain.ErrDuplicateKey
		}
	}

	now := time.Now()
	order.ID = newID()
	order.CreatedAt = now
	order.UpdatedAt = now
	o := *order
	r.s.orders[o.ID] = &o
	return nil
}

func (r orderRepo) Update(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order not found: %s", order.ID)
	}
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now()
	order.ItemsRevision = existing.ItemsRevision + 1
	o := *order
	r.s.orders[o.ID] = &o
	return nil
}

func (r orderRepo) AttachCustomer(_ context.Context, orderID string, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o, ok := r.s.orders[orderID]; ok {
		o.CustomerID = customerID
		o.UpdatedAt = time.Now()
	}
	return nil
}

func (r orderRepo) ItemsRevision(_ context.Context, orderID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return 0, fmt.Errorf("order not found: %s", orderID)
	}
	return o.ItemsRevision, nil
}

type itemRepo struct{ s *Store }

func (r itemRepo) DeleteStale(_ context.Context, orderID string, keep int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.items[orderID][:0]
	var n int64
	for _, item := range r.s.items[orderID] {
		if item.Revision >= keep {
			kept = append(kept, item)
			continue
		}
		n++
	}
	if len(kept) == 0 {
		delete(r.s.items, orderID)
	} else {
		r.s.items[orderID] = kept
	}
	return n, nil
}

func (r itemRepo) InsertMany(_ context.Context, items []domain.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for i := range items {
		items[i].ID = newID()
		items[i].CreatedAt = now
		r.s.items[items[i].OrderID] = append(r.s.items[items[i].OrderID], items[i])
	}
	return nil
}

func (r itemRepo) ListByOrder(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.OrderItem, len(r.s.items[orderID]))
	copy(out, r.s.items[orderID])
	return out, nil
}
