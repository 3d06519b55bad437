// Package mongodb stores leads and status checks in MongoDB collections.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	leadsCollection        = "leads"
	statusChecksCollection = "status_checks"
)

// Config is the required properties to use the database.
type Config struct {
	URL            string
	Name           string
	ConnectTimeout time.Duration
}

// Open connects to the deployment at cfg.URL and returns the named
// database. The caller releases it with Close.
func Open(ctx context.Context, cfg Config) (*mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return client.Database(cfg.Name), nil
}

func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// StatusCheck returns nil if the primary answers a ping.
func StatusCheck(ctx context.Context, db *mongo.Database) error {
	return db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the stores rely on. The unique user_id
// index turns a lost find-then-insert race into a duplicate key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(leadsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("creating lead indexes: %w", err)
	}
	return nil
}
