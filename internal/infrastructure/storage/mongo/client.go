// Package mongo implements the document half of the store.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// Config holds connection settings.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	Timeout     time.Duration
}

// Client owns the driver connection and the selected database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Documents returns the document store over this database.
func (c *Client) Documents() *DocumentStore {
	return &DocumentStore{db: c.db}
}

// EnsureIndexes creates the lookup indexes of every schema's collection.
// Relational-first documents are found by their reference field, which must be unique.
func (c *Client) EnsureIndexes(ctx context.Context, schemas ...*domain.Schema) error {
	for _, s := range schemas {
		indexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: domain.ColStatus, Value: 1}}},
		}
		if s.Order == domain.RelationalFirst && s.RefField != "" {
			indexes = append(indexes, mongo.IndexModel{
				Keys:    bson.D{{Key: s.RefField, Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			})
		}
		if _, err := c.db.Collection(s.Collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes for %s: %w", s.Collection, err)
		}
		logger.Debug(ctx, "document indexes ensured", "collection", s.Collection)
	}
	return nil
}
