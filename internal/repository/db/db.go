package db

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 30 * time.Second

// MongoDb wraps the client for the target cluster.
type MongoDb struct {
	Client *mongo.Client
}

// NewDatabase connects to uri and verifies the primary is reachable.
func NewDatabase(ctx context.Context, uri string, maxPoolSize uint64) (*MongoDb, error) {
	opts := options.Client().ApplyURI(uri)
	if maxPoolSize > 0 {
		opts.SetMaxPoolSize(maxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach cluster: %w", err)
	}

	log.Debug("Connected to cluster")
	return &MongoDb{Client: client}, nil
}

// Disconnect closes every pooled connection.
func (m *MongoDb) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// DynamoDb holds the client for the transfer manifest table.
type DynamoDb struct {
	Client *dynamodb.Client
}

func NewManifestDatabase(awsConfig aws.Config) *DynamoDb {
	client := dynamodb.NewFromConfig(awsConfig)
	if client == nil {
		log.Fatal("Failed to create DynamoDB client")
	}

	return &DynamoDb{
		Client: client,
	}
}
