package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	defaultURI      = "mongodb://localhost:27017"
	defaultDatabase = "feed"
	connectTimeout  = 10 * time.Second
)

var ErrNotConnected = errors.New("mongo: not connected")

type MongoConfig struct {
	URI      string
	Database string
}

// NewMongoConfig reads MONGO_URI and MONGO_DATABASE.
func NewMongoConfig() *MongoConfig {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = defaultURI
	}
	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = defaultDatabase
	}

	return &MongoConfig{
		URI:      uri,
		Database: database,
	}
}

// MongoDB owns a client connection and hands out the configured database.
type MongoDB struct {
	cfg    *MongoConfig
	client *mongo.Client
}

func NewMongoDB(cfg *MongoConfig) *MongoDB {
	return &MongoDB{cfg: cfg}
}

// Connect dials the server and verifies it with a ping against the primary.
func (m *MongoDB) Connect(ctx context.Context) error {
	if m.client != nil {
		return fmt.Errorf("database already connected")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(m.cfg.URI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	m.client = client
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	err := m.client.Disconnect(ctx)
	m.client = nil
	return err
}

// Database returns the configured database handle.
func (m *MongoDB) Database() (*mongo.Database, error) {
	if m.client == nil {
		return nil, ErrNotConnected
	}
	return m.client.Database(m.cfg.Database), nil
}
