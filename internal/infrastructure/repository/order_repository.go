package repository

import (
	"context"
	"fmt"
	"time"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/repository/entity"
	"archie-core-order-ingest/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection(OrdersCollection),
	}
}

// FindByExternalID retrieves an order by its provider id within one integration
func (r *MongoOrderRepository) FindByExternalID(ctx context.Context, integrationID string, externalOrderID string) (*domain.Order, error) {
	var doc entity.MongoOrderDoc
	filter := bson.M{
		"integrationId":   integrationID,
		"externalOrderId": externalOrderID,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return doc.ToDomain(), nil
}

// Create inserts a new order and sets its id
func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	doc, err := entity.MongoOrderDocFromDomain(order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	order.ID = doc.ID.Hex()
	return nil
}

// Update overwrites the mutable fields of an existing order and bumps its items revision
func (r *MongoOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	objID, err := primitive.ObjectIDFromHex(order.ID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", order.ID, err)
	}

	total, err := entity.DecimalToBSON(order.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	order.UpdatedAt = time.Now()
	set := bson.M{
		"status":            order.Status,
		"totalAmount":       total,
		"currency":          order.Currency,
		"providerCreatedAt": order.ProviderCreatedAt,
		"providerUpdatedAt": order.ProviderUpdatedAt,
		"updatedAt":         order.UpdatedAt,
	}
	if order.CustomerID != "" {
		set["customerId"] = order.CustomerID
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"itemsRevision": 1},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"itemsRevision": 1})

	var doc struct {
		ItemsRevision int64 `bson:"itemsRevision"`
	}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("order not found: %s", order.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	order.ItemsRevision = doc.ItemsRevision
	return nil
}

// AttachCustomer sets the customer link of an order
func (r *MongoOrderRepository) AttachCustomer(ctx context.Context, orderID string, customerID string) error {
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", orderID, err)
	}

	update := bson.M{"$set": bson.M{
		"customerId": customerID,
		"updatedAt":  time.Now(),
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		return fmt.Errorf("failed to attach customer: %w", err)
	}

	return nil
}

// ItemsRevision reads only the items revision of an order
func (r *MongoOrderRepository) ItemsRevision(ctx context.Context, orderID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q: %w", orderID, err)
	}

	var doc struct {
		ItemsRevision int64 `bson:"itemsRevision"`
	}
	opts := options.FindOne().SetProjection(bson.M{"itemsRevision": 1})
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, fmt.Errorf("order not found: %s", orderID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get order items revision: %w", err)
	}

	return doc.ItemsRevision, nil
}
