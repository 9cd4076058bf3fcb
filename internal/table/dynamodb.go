package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoDBTable
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBTable is a Table backed by an Amazon DynamoDB table
type DynamoDBTable struct {
	client DynamoDBAPI
	name   string
	logger *logrus.Logger
}

// NewDynamoDBTable creates a DynamoDB client from the default AWS credential
// chain. A non-empty endpoint points the client at DynamoDB Local.
func NewDynamoDBTable(ctx context.Context, cfg *Config, logger *logrus.Logger) (*DynamoDBTable, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewDynamoDBTableWithClient(client, cfg.Name, logger), nil
}

// NewDynamoDBTableWithClient wraps an existing client
func NewDynamoDBTableWithClient(client DynamoDBAPI, name string, logger *logrus.Logger) *DynamoDBTable {
	if logger == nil {
		logger = logrus.New()
	}
	return &DynamoDBTable{
		client: client,
		name:   name,
		logger: logger,
	}
}

// Put implements Table.Put
func (d *DynamoDBTable) Put(ctx context.Context, item Item) error {
	if item == nil {
		return NewError("PutItem", d.name, validationf("Item is required"))
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return NewError("PutItem", d.name, validationf("failed to marshal item: %v", err))
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.name),
		Item:      av,
	})
	if err != nil {
		return NewError("PutItem", d.name, wrapDynamoDBError(err))
	}
	return nil
}

// Get implements Table.Get
func (d *DynamoDBTable) Get(ctx context.Context, key Key) (*GetResult, error) {
	av, err := marshalKey(key)
	if err != nil {
		return nil, NewError("GetItem", d.name, err)
	}

	resp, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.name),
		Key:       av,
	})
	if err != nil {
		return nil, NewError("GetItem", d.name, wrapDynamoDBError(err))
	}

	if resp.Item == nil {
		return &GetResult{}, nil // item not found
	}

	var item map[string]any
	err = attributevalue.UnmarshalMapWithOptions(resp.Item, &item, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, NewError("GetItem", d.name, fmt.Errorf("failed to unmarshal item: %w", err))
	}
	return &GetResult{Item: Item(jsonNumbers(item).(map[string]any))}, nil
}

// Update implements Table.Update
func (d *DynamoDBTable) Update(ctx context.Context, input UpdateInput) error {
	av, err := marshalKey(input.Key)
	if err != nil {
		return NewError("UpdateItem", d.name, err)
	}

	params := &dynamodb.UpdateItemInput{
		TableName: aws.String(d.name),
		Key:       av,
	}
	if input.UpdateExpression != "" {
		params.UpdateExpression = aws.String(input.UpdateExpression)
	}
	// DynamoDB rejects empty placeholder maps
	if len(input.ExpressionAttributeNames) > 0 {
		params.ExpressionAttributeNames = input.ExpressionAttributeNames
	}
	if len(input.ExpressionAttributeValues) > 0 {
		values, err := attributevalue.MarshalMap(input.ExpressionAttributeValues)
		if err != nil {
			return NewError("UpdateItem", d.name, validationf("failed to marshal expression attribute values: %v", err))
		}
		params.ExpressionAttributeValues = values
	}

	if _, err := d.client.UpdateItem(ctx, params); err != nil {
		return NewError("UpdateItem", d.name, wrapDynamoDBError(err))
	}
	return nil
}

// Delete implements Table.Delete
func (d *DynamoDBTable) Delete(ctx context.Context, key Key) error {
	av, err := marshalKey(key)
	if err != nil {
		return NewError("DeleteItem", d.name, err)
	}

	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.name),
		Key:       av,
	})
	if err != nil {
		return NewError("DeleteItem", d.name, wrapDynamoDBError(err))
	}
	return nil
}

// Close implements Table.Close
func (d *DynamoDBTable) Close() error {
	return nil
}

func marshalKey(key Key) (map[string]types.AttributeValue, error) {
	if key == nil {
		return nil, validationf("Key is required")
	}
	av, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return nil, validationf("failed to marshal key: %v", err)
	}
	return av, nil
}

// jsonNumbers converts decoded DynamoDB numbers to json.Number
func jsonNumbers(v any) any {
	switch tv := v.(type) {
	case attributevalue.Number:
		return json.Number(tv)
	case []attributevalue.Number:
		out := make([]any, len(tv))
		for i, n := range tv {
			out[i] = json.Number(n)
		}
		return out
	case []any:
		for i, e := range tv {
			tv[i] = jsonNumbers(e)
		}
		return tv
	case map[string]any:
		for k, e := range tv {
			tv[k] = jsonNumbers(e)
		}
		return tv
	}
	return v
}

func wrapDynamoDBError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException", "ConditionalCheckFailedException", "ResourceNotFoundException":
			return fmt.Errorf("%w: %s: %s", ErrValidation, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
