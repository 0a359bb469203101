package repository

import (
	"context"
	"fmt"

	"archie-core-order-ingest/internal/domain"
	"archie-core-order-ingest/internal/infrastructure/repository/entity"
	"archie-core-order-ingest/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIntegrationRepository implements IntegrationRepository using MongoDB
type MongoIntegrationRepository struct {
	collection *mongo.Collection
}

// NewMongoIntegrationRepository creates a new MongoDB integration repository
func NewMongoIntegrationRepository(db *mongo.Database) ports.IntegrationRepository {
	return &MongoIntegrationRepository{
		collection: db.Collection(IntegrationsCollection),
	}
}

// ListActiveByProvider returns active integrations of provider, oldest first
func (r *MongoIntegrationRepository) ListActiveByProvider(ctx context.Context, provider domain.Provider) ([]*domain.Integration, error) {
	filter := bson.M{
		"provider": provider.String(),
		"active":   true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer cursor.Close(ctx)

	var integrations []*domain.Integration
	for cursor.Next(ctx) {
		var doc entity.MongoIntegrationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode integration: %w", err)
		}
		integrations = append(integrations, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return integrations, nil
}

// GetActiveBySecret retrieves the active integration of provider with the given secret
func (r *MongoIntegrationRepository) GetActiveBySecret(ctx context.Context, provider domain.Provider, secret string) (*domain.Integration, error) {
	var doc entity.MongoIntegrationDoc
	filter := bson.M{
		"provider": provider.String(),
		"active":   true,
		"secret":   secret,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	return doc.ToDomain(), nil
}

// GetByID retrieves an integration by id
func (r *MongoIntegrationRepository) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc entity.MongoIntegrationDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	return doc.ToDomain(), nil
}
