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

// MongoOrderItemRepository implements OrderItemRepository using MongoDB
type MongoOrderItemRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderItemRepository creates a new MongoDB order item repository
func NewMongoOrderItemRepository(db *mongo.Database) ports.OrderItemRepository {
	return &MongoOrderItemRepository{
		collection: db.Collection(OrderItemsCollection),
	}
}

// DeleteStale removes the items of an order whose revision is below keep
func (r *MongoOrderItemRepository) DeleteStale(ctx context.Context, orderID string, keep int64) (int64, error) {
	filter := bson.M{
		"orderId":  orderID,
		"revision": bson.M{"$lt": keep},
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete order items: %w", err)
	}
	return result.DeletedCount, nil
}

// InsertMany inserts items with fresh ids, setting ID and CreatedAt on each
func (r *MongoOrderItemRepository) InsertMany(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		item.ID = ""
		item.CreatedAt = now
		doc, err := entity.MongoOrderItemDocFromDomain(item)
		if err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}
		doc.ID = primitive.NewObjectID()
		docs = append(docs, doc)
		ids = append(ids, doc.ID)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}

	for i := range items {
		items[i].ID = ids[i].Hex()
		items[i].CreatedAt = now
	}
	return nil
}

// ListByOrder retrieves the items of an order in insertion order
func (r *MongoOrderItemRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"orderId": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []domain.OrderItem{}
	for cursor.Next(ctx) {
		var doc entity.MongoOrderItemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order item: %w", err)
		}
		items = append(items, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return items, nil
}
