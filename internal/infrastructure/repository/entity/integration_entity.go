package entity

import (
	"time"

	"archie-core-order-ingest/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoIntegrationDoc represents an integration in MongoDB
type MongoIntegrationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Provider  string             `bson:"provider"`
	Domain    string             `bson:"domain"`
	BaseURL   string             `bson:"baseUrl,omitempty"`
	Secret    string             `bson:"secret"`
	Active    bool               `bson:"active"`
	OwnerID   string             `bson:"ownerId"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoIntegrationDoc) ToDomain() *domain.Integration {
	return &domain.Integration{
		ID:        d.ID.Hex(),
		Provider:  domain.Provider(d.Provider),
		Domain:    d.Domain,
		BaseURL:   d.BaseURL,
		Secret:    d.Secret,
		Active:    d.Active,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoIntegrationDocFromDomain converts a domain entity to a MongoDB document
func MongoIntegrationDocFromDomain(integration *domain.Integration) *MongoIntegrationDoc {
	return &MongoIntegrationDoc{
		ID:        objectIDFromHex(integration.ID),
		Provider:  integration.Provider.String(),
		Domain:    integration.Domain,
		BaseURL:   integration.BaseURL,
		Secret:    integration.Secret,
		Active:    integration.Active,
		OwnerID:   integration.OwnerID,
		CreatedAt: integration.CreatedAt,
		UpdatedAt: integration.UpdatedAt,
	}
}

// objectIDFromHex returns the zero id for empty or malformed input
func objectIDFromHex(id string) primitive.ObjectID {
	if id == "" {
		return primitive.NilObjectID
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return objID
}
