package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zzenonn/zingest/internal/domain"
)

// ErrRecordNotFound is returned when no manifest entry has the requested id.
var ErrRecordNotFound = errors.New("transfer record not found")

// DynamoItemAPI is the subset of the DynamoDB client used by the manifest.
type DynamoItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// ManifestRepository manages DynamoDB interactions for TransferRecord.
type ManifestRepository struct {
	client    DynamoItemAPI
	tableName string
}

// NewManifestRepository initializes a new ManifestRepository.
func NewManifestRepository(client DynamoItemAPI, tableName string) ManifestRepository {
	return ManifestRepository{
		client:    client,
		tableName: tableName,
	}
}

// Record stores one finished transfer.
func (repo *ManifestRepository) Record(ctx context.Context, record domain.TransferRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(repo.tableName),
		Item:      item,
	}

	if _, err := repo.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to record transfer %s: %w", record.TransferID, err)
	}
	return nil
}

// GetRecord retrieves a transfer record by id.
func (repo *ManifestRepository) GetRecord(ctx context.Context, transferID string) (domain.TransferRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(repo.tableName),
		Key: map[string]types.AttributeValue{
			"transfer_id": &types.AttributeValueMemberS{Value: transferID},
		},
	}

	result, err := repo.client.GetItem(ctx, input)
	if err != nil {
		return domain.TransferRecord{}, fmt.Errorf("failed to get transfer record: %w", err)
	}

	if result.Item == nil {
		return domain.TransferRecord{}, ErrRecordNotFound
	}

	var record domain.TransferRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return domain.TransferRecord{}, fmt.Errorf("failed to unmarshal transfer record: %w", err)
	}

	return record, nil
}
