package users

import (
	"context"
	"errors"
	"time"

	"github.com/socialhub/socialhub/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("user not found")

// UserRepository defines persistence operations for identities.
// Lookups return (nil, nil) when nothing matches; updates return ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string, temporary bool, at time.Time) error
	UpdateProfile(ctx context.Context, id, username string, at time.Time) (*models.User, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	// email is the login key; the index only speeds lookups, it is not unique
	idx := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{"lastLoginAt": at})
}

func (r *MongoUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string, temporary bool, at time.Time) error {
	return r.set(ctx, id, bson.M{"passwordHash": hash, "isTemporaryPassword": temporary, "lastUpdatedAt": at})
}

func (r *MongoUserRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{"isActive": false, "lastUpdatedAt": at})
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id, username string, at time.Time) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	upd := bson.M{"$set": bson.M{"username": username, "lastUpdatedAt": at}}
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) set(ctx context.Context, id string, fields bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
