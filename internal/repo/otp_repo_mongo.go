package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
)

type mongoConfig struct {
	URI        string `json:"uri" validate:"required"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

type mongoOtpDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	Code      string             `bson:"code"`
	CreatedAt time.Time          `bson:"created_at"`
}

func init() {
	Register("mongo", createMongoOtpRepo)
}

func createMongoOtpRepo(ctx context.Context, args interface{}) (OtpRepo, error) {
	cfg := &mongoConfig{}
	if err := config.DecodeData(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		cfg.Database = "otpverify"
	}
	if cfg.Collection == "" {
		cfg.Collection = "otps"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	r := NewMongoOtpRepo(client, client.Database(cfg.Database).Collection(cfg.Collection))
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return r, nil
}

type MongoOtpRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoOtpRepo(client *mongo.Client, coll *mongo.Collection) *MongoOtpRepo {
	return &MongoOtpRepo{client: client, coll: coll}
}

func (r *MongoOtpRepo) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	return err
}

// Insert upserts a fresh _id so created_at is stamped by the server clock
// through $currentDate rather than by this instance.
func (r *MongoOtpRepo) Insert(ctx context.Context, record *model.OtpRecord) error {
	update := bson.M{
		"$setOnInsert": bson.M{"email": record.Email, "code": record.Code},
		"$currentDate": bson.M{"created_at": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc mongoOtpDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": primitive.NewObjectID()}, update, opts).Decode(&doc); err != nil {
		return err
	}
	record.ID = doc.ID.Hex()
	record.Ctime = doc.CreatedAt.UnixMilli()
	return nil
}

func (r *MongoOtpRepo) Latest(ctx context.Context, email string) (*model.OtpRecord, error) {
	// ObjectIDs carry a per-process counter, breaking ties inside one millisecond.
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	var doc mongoOtpDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &model.OtpRecord{
		ID:    doc.ID.Hex(),
		Email: doc.Email,
		Code:  doc.Code,
		Ctime: doc.CreatedAt.UnixMilli(),
	}, nil
}

func (r *MongoOtpRepo) DeleteIfMatch(ctx context.Context, id, code string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "code": code})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *MongoOtpRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": time.UnixMilli(cutoff).UTC()}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MongoOtpRepo) Close() error {
	return r.client.Disconnect(context.Background())
}
