package migrate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	TransferManifestVersion = "20250801000000_transfer_manifest_table"

	tableWaitTimeout = 5 * time.Minute
)

// TableAPI is the subset of the DynamoDB client used by migrations.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	dynamodb.DescribeTableAPIClient
}

type CreateTransferManifestTable struct {
	Table string
}

func (m *CreateTransferManifestTable) Version() string {
	return TransferManifestVersion
}

func (m *CreateTransferManifestTable) TableName() string {
	return m.Table
}

func (m *CreateTransferManifestTable) Up(ctx context.Context, client TableAPI) error {
	input := &dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("transfer_id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("transfer_id"),
				KeyType:       types.KeyTypeHash, // Partition Key
			},
		},
		TableName:   aws.String(m.Table),
		BillingMode: types.BillingModePayPerRequest,
		Tags: []types.Tag{
			{
				Key:   aws.String("Purpose"),
				Value: aws.String("IngestTransferManifest"),
			},
		},
	}

	if _, err := client.CreateTable(ctx, input); err != nil {
		return err
	}

	log.Infof("Waiting for table %s to become active", m.Table)
	waiter := dynamodb.NewTableExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(m.Table),
	}, tableWaitTimeout)
}

func (m *CreateTransferManifestTable) Down(ctx context.Context, client TableAPI) error {
	input := &dynamodb.DeleteTableInput{
		TableName: aws.String(m.Table),
	}

	_, err := client.DeleteTable(ctx, input)
	return err
}
