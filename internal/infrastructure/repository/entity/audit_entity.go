package entity

import (
	"time"

	"archie-core-order-ingest/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoRequestLogDoc represents one audit event in MongoDB
type MongoRequestLogDoc struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty"`
	RequestID    string                 `bson:"requestId"`
	Type         string                 `bson:"type"`
	Provider     string                 `bson:"provider"`
	Step         string                 `bson:"step,omitempty"`
	Message      string                 `bson:"message,omitempty"`
	StatusCode   int                    `bson:"statusCode,omitempty"`
	ProcessingMs int64                  `bson:"processingMs"`
	Metadata     map[string]interface{} `bson:"metadata,omitempty"`
	CreatedAt    time.Time              `bson:"createdAt"`
}

// MongoRequestLogDocFromDomain converts an audit event to a MongoDB document
func MongoRequestLogDocFromDomain(event *domain.AuditEvent) *MongoRequestLogDoc {
	return &MongoRequestLogDoc{
		RequestID:    event.RequestID,
		Type:         string(event.Type),
		Provider:     event.Provider.String(),
		Step:         string(event.Step),
		Message:      event.Message,
		StatusCode:   event.StatusCode,
		ProcessingMs: event.ProcessingMs,
		Metadata:     event.Metadata,
		CreatedAt:    event.CreatedAt,
	}
}
