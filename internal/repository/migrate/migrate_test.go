package migrate

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTableAPI struct {
	created   *dynamodb.CreateTableInput
	deleted   *dynamodb.DeleteTableInput
	describes int
}

func (m *mockTableAPI) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.created = params
	return &dynamodb.CreateTableOutput{}, nil
}

func (m *mockTableAPI) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	m.deleted = params
	return &dynamodb.DeleteTableOutput{}, nil
}

func (m *mockTableAPI) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.describes++
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func TestCreateTransferManifestTable_Up(t *testing.T) {
	client := &mockTableAPI{}
	migration := &CreateTransferManifestTable{Table: "transfers"}

	require.NoError(t, migration.Up(context.Background(), client))

	require.NotNil(t, client.created)
	assert.Equal(t, "transfers", aws.ToString(client.created.TableName))
	require.Len(t, client.created.KeySchema, 1)
	assert.Equal(t, "transfer_id", aws.ToString(client.created.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, client.created.KeySchema[0].KeyType)
	assert.Equal(t, 1, client.describes)
}

func TestCreateTransferManifestTable_Down(t *testing.T) {
	client := &mockTableAPI{}
	migration := &CreateTransferManifestTable{Table: "transfers"}

	require.NoError(t, migration.Down(context.Background(), client))
	assert.Equal(t, "transfers", aws.ToString(client.deleted.TableName))
	assert.Equal(t, TransferManifestVersion, migration.Version())
	assert.Equal(t, "transfers", migration.TableName())
}
