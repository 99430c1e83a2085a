package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	usersCollection = "users"
	postsCollection = "posts"
)

// Connection holds a MongoDB client bound to one database.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewConnection connects to uri and checks the server is reachable.
func NewConnection(ctx context.Context, uri, database string) (*Connection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Connection{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Close disconnects the client.
func (c *Connection) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
