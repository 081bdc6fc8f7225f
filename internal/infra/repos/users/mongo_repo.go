package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mmrzaf/mdgen/internal/domain"
)

const (
	fieldID             = "_id"
	fieldEmail          = "email"
	fieldToken          = "token"
	fieldVerified       = "verified"
	fieldGeneratedCount = "generated_count"
	fieldLastUsed       = "last_used"
)

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Token          string             `bson:"token"`
	Verified       bool               `bson:"verified"`
	GeneratedCount int64              `bson:"generated_count"`
	LastUsed       time.Time          `bson:"last_used"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		Token:          d.Token,
		Verified:       d.Verified,
		GeneratedCount: d.GeneratedCount,
		LastUsed:       d.LastUsed,
		CreatedAt:      d.CreatedAt,
	}
}

// MongoRepository keeps one document per user in a single collection.
type MongoRepository struct {
	uri        string
	database   string
	collection string

	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoRepository(uri, database, collection string) *MongoRepository {
	return &MongoRepository{uri: uri, database: database, collection: collection}
}

func (r *MongoRepository) Init(ctx context.Context) error {
	if r.uri == "" || r.database == "" || r.collection == "" {
		return errors.New("mongo uri, database and collection are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(r.uri))
	if err != nil {
		return fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping mongo: %w", err)
	}
	r.client = client
	r.coll = client.Database(r.database).Collection(r.collection)

	_, err = r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldEmail, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: fieldToken, Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		r.client, r.coll = nil, nil
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		Email:          user.Email,
		Token:          user.Token,
		Verified:       user.Verified,
		GeneratedCount: user.GeneratedCount,
		LastUsed:       user.LastUsed.UTC(),
		CreatedAt:      user.CreatedAt.UTC(),
	}
	if user.ID != "" {
		oid, err := primitive.ObjectIDFromHex(user.ID)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", user.ID, err)
		}
		doc.ID = oid
	} else {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{fieldID: oid})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{fieldEmail: email})
}

func (r *MongoRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{fieldToken: token})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRepository) MarkVerified(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{fieldVerified: true}})
}

func (r *MongoRepository) IncrementUsage(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{fieldLastUsed: at.UTC()},
		"$inc": bson.M{fieldGeneratedCount: 1},
	})
}

func (r *MongoRepository) SetToken(ctx context.Context, id, token string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{fieldToken: token}})
}

func (r *MongoRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{fieldID: oid}, update)
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	if r.client != nil {
		return r.client.Disconnect(ctx)
	}
	return nil
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}
