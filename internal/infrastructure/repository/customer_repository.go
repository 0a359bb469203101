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

// MongoCustomerRepository implements CustomerRepository using MongoDB
type MongoCustomerRepository struct {
	collection *mongo.Collection
}

// NewMongoCustomerRepository creates a new MongoDB customer repository
func NewMongoCustomerRepository(db *mongo.Database) ports.CustomerRepository {
	return &MongoCustomerRepository{
		collection: db.Collection(CustomersCollection),
	}
}

// FindByEmail retrieves the tenant's customer with the given email
func (r *MongoCustomerRepository) FindByEmail(ctx context.Context, ownerID string, email string) (*domain.Customer, error) {
	var doc entity.MongoCustomerDoc
	filter := bson.M{
		"ownerId": ownerID,
		"email":   email,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return doc.ToDomain(), nil
}

// Create inserts a new customer and sets its id
func (r *MongoCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	doc := entity.MongoCustomerDocFromDomain(customer)
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	customer.ID = doc.ID.Hex()
	return nil
}

// UpdateContact refreshes contact fields and increments the order counter atomically
func (r *MongoCustomerRepository) UpdateContact(ctx context.Context, id string, fields domain.CustomerFields, incrementOrders int) (*domain.Customer, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id %q: %w", id, err)
	}

	update := bson.M{
		"$set": bson.M{
			"name":      fields.Name,
			"phone":     fields.Phone,
			"address":   entity.MongoCustomerAddressDocFromDomain(fields.Address),
			"updatedAt": time.Now(),
		},
	}
	if incrementOrders != 0 {
		update["$inc"] = bson.M{"totalOrders": incrementOrders}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc entity.MongoCustomerDoc
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return doc.ToDomain(), nil
}
