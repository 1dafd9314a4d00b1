package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/expensehub/gateway/internal/core/domain"
)

const credentialsCollection = "credentials"

// IdentityRepository stores credentials in MongoDB. Uniqueness of user_name is
// enforced by a unique index, so concurrent inserts race safely on the server.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(credentialsCollection)}
}

type credentialDoc struct {
	ID           string    `bson:"_id"`
	UserName     string    `bson:"user_name"`
	PasswordHash string    `bson:"password_hash"`
	Phone        string    `bson:"phone"`
	Age          int       `bson:"age"`
	CreatedAt    time.Time `bson:"created_at"`
}

// EnsureIndexes creates the unique user_name index. Must run before serving.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_name"),
	})
	if err != nil {
		return fmt.Errorf("create credentials index: %w", err)
	}
	return nil
}

func (r *IdentityRepository) FindByUserName(ctx context.Context, userName string) (*domain.Credential, error) {
	var doc credentialDoc
	if err := r.coll.FindOne(ctx, bson.M{"user_name": userName}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) InsertIfAbsent(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	doc := credentialDoc{
		ID:           cred.ID,
		UserName:     cred.UserName,
		PasswordHash: cred.PasswordHash,
		Phone:        cred.Phone,
		Age:          cred.Age,
		CreatedAt:    cred.CreatedAt.UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) Clear(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (d credentialDoc) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:           d.ID,
		UserName:     d.UserName,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		Age:          d.Age,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
