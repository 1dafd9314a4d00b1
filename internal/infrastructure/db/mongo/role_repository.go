package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const rolesCollection = "role_assignments"

// RoleRepository resolves roles from the role_assignments collection, one
// document per user keyed by user id.
type RoleRepository struct {
	coll     *mongo.Collection
	fallback string
}

func NewRoleRepository(db *mongo.Database, fallback string) *RoleRepository {
	return &RoleRepository{coll: db.Collection(rolesCollection), fallback: fallback}
}

type roleDoc struct {
	UserID string `bson:"_id"`
	Role   string `bson:"role"`
}

func (r *RoleRepository) RoleFor(ctx context.Context, userID string) (string, error) {
	var doc roleDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.fallback, nil
		}
		return "", fmt.Errorf("find role: %w", err)
	}
	return doc.Role, nil
}

func (r *RoleRepository) Assign(ctx context.Context, userID, role string) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": userID},
		roleDoc{UserID: userID, Role: role},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}
