package entity

import (
	"time"

	"archie-core-order-ingest/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents an order in MongoDB
type MongoOrderDoc struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty"`
	OwnerID           string               `bson:"ownerId"`
	IntegrationID     string               `bson:"integrationId"`
	CustomerID        string               `bson:"customerId,omitempty"`
	ExternalOrderID   string               `bson:"externalOrderId"`
	Status            string               `bson:"status"`
	TotalAmount       primitive.Decimal128 `bson:"totalAmount"`
	Currency          string               `bson:"currency,omitempty"`
	Source            string               `bson:"source"`
	ProviderCreatedAt *time.Time           `bson:"providerCreatedAt,omitempty"`
	ProviderUpdatedAt *time.Time           `bson:"providerUpdatedAt,omitempty"`
	ItemsRevision     int64                `bson:"itemsRevision"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	return &domain.Order{
		ID:                d.ID.Hex(),
		OwnerID:           d.OwnerID,
		IntegrationID:     d.IntegrationID,
		CustomerID:        d.CustomerID,
		ExternalOrderID:   d.ExternalOrderID,
		Status:            d.Status,
		TotalAmount:       DecimalFromBSON(d.TotalAmount),
		Currency:          d.Currency,
		Source:            domain.Provider(d.Source),
		ProviderCreatedAt: d.ProviderCreatedAt,
		ProviderUpdatedAt: d.ProviderUpdatedAt,
		ItemsRevision:     d.ItemsRevision,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(order *domain.Order) (*MongoOrderDoc, error) {
	total, err := DecimalToBSON(order.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &MongoOrderDoc{
		ID:                objectIDFromHex(order.ID),
		OwnerID:           order.OwnerID,
		IntegrationID:     order.IntegrationID,
		CustomerID:        order.CustomerID,
		ExternalOrderID:   order.ExternalOrderID,
		Status:            order.Status,
		TotalAmount:       total,
		Currency:          order.Currency,
		Source:            order.Source.String(),
		ProviderCreatedAt: order.ProviderCreatedAt,
		ProviderUpdatedAt: order.ProviderUpdatedAt,
		ItemsRevision:     order.ItemsRevision,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}, nil
}

// MongoOrderItemDoc represents an order line item in MongoDB
type MongoOrderItemDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	OrderID     string               `bson:"orderId"`
	SKU         string               `bson:"sku"`
	ProductName string               `bson:"productName"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unitPrice"`
	Revision    int64                `bson:"revision"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderItemDoc) ToDomain() domain.OrderItem {
	return domain.OrderItem{
		ID:          d.ID.Hex(),
		OrderID:     d.OrderID,
		SKU:         d.SKU,
		ProductName: d.ProductName,
		Quantity:    d.Quantity,
		UnitPrice:   DecimalFromBSON(d.UnitPrice),
		Revision:    d.Revision,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoOrderItemDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderItemDocFromDomain(item domain.OrderItem) (*MongoOrderItemDoc, error) {
	price, err := DecimalToBSON(item.UnitPrice)
	if err != nil {
		return nil, err
	}

	return &MongoOrderItemDoc{
		ID:          objectIDFromHex(item.ID),
		OrderID:     item.OrderID,
		SKU:         item.SKU,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   price,
		Revision:    item.Revision,
		CreatedAt:   item.CreatedAt,
	}, nil
}
