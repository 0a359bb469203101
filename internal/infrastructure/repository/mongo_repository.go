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

const (
	IntegrationsCollection = "integrations"
	CustomersCollection    = "customers"
	OrdersCollection       = "orders"
	OrderItemsCollection   = "order_items"
	RequestLogsCollection  = "request_logs"
)

// collectionIndexes lists the indexes the repositories rely on. The unique ones arbitrate
// concurrent deliveries of the same order or customer.
var collectionIndexes = map[string][]mongo.IndexModel{
	IntegrationsCollection: {
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "active", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "secret", Value: 1}}},
	},
	CustomersCollection: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "ownerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_owner_unique"),
		},
	},
	OrdersCollection: {
		{
			Keys:    bson.D{{Key: "integrationId", Value: 1}, {Key: "externalOrderId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("integration_external_order_unique"),
		},
	},
	OrderItemsCollection: {
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
	},
	RequestLogsCollection: {
		{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdAt", Value: 1}}},
	},
}

// EnsureIndexes creates the indexes of every collection
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range collectionIndexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// MongoAuditRepository implements AuditSink using MongoDB
type MongoAuditRepository struct {
	requestLogsCollection *mongo.Collection
}

// NewMongoAuditRepository creates a new MongoDB audit sink
func NewMongoAuditRepository(db *mongo.Database) ports.AuditSink {
	return &MongoAuditRepository{
		requestLogsCollection: db.Collection(RequestLogsCollection),
	}
}

// Record stores one audit event
func (r *MongoAuditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	doc := entity.MongoRequestLogDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.requestLogsCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log request event: %w", err)
	}

	return nil
}
