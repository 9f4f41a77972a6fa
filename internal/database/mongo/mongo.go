package mongo

import (
	"audit-service/internal/config"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connection holds the client and the audit record collection.
type Connection struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

// Connect dials MongoDB, verifies the primary and ensures the listing indexes exist.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	if err := ensureIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Connection{Client: client, Collection: coll}, nil
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "conditionKey", Value: 1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit record indexes: %w", err)
	}
	return nil
}

func (c *Connection) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
