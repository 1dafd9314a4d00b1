package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expensehub/gateway/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository appends audit events to the auth_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_name", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}},
		{Keys: bson.D{{Key: "at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (r *AuditRepository) Write(ctx context.Context, ev domain.AuditEvent) error {
	if _, err := r.coll.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
