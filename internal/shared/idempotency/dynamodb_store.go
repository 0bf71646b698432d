package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	dynamoAttrKey       = "idempotency_key"
	dynamoAttrExpiresAt = "expires_at"
)

var _ Store = (*DynamoDBStore)(nil)

// DynamoDBAPI is the subset of *dynamodb.Client the store uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type dynamoItem struct {
	Key       string `dynamodbav:"idempotency_key"`
	Status    Status `dynamodbav:"status"`
	Response  string `dynamodbav:"response"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// DynamoDBStore is the wide-column backend. The table's partition key is
// idempotency_key and its TTL attribute is expires_at (epoch seconds).
type DynamoDBStore struct {
	client DynamoDBAPI
	table  string
	opts   storeOptions
}

// NewDynamoDBStore creates a store on top of an existing client.
func NewDynamoDBStore(client DynamoDBAPI, table string, opts ...StoreOption) *DynamoDBStore {
	return &DynamoDBStore{
		client: client,
		table:  table,
		opts:   newStoreOptions(opts),
	}
}

// openDynamoDB accepts either an http(s) endpoint, used as the client base
// endpoint, or dynamodb://<region> for the default regional endpoint.
func openDynamoDB(ctx context.Context, cfg Config, opts []StoreOption) (Store, error) {
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, configurationError(BackendDynamoDB, fmt.Errorf("invalid dynamodb url: %w", err))
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	var clientOpts []func(*dynamodb.Options)

	switch strings.ToLower(endpoint.Scheme) {
	case "http", "https":
		baseEndpoint := cfg.URL
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(baseEndpoint)
		})
	case "dynamodb":
		if endpoint.Host != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(endpoint.Host))
		}
	default:
		return nil, configurationError(BackendDynamoDB, fmt.Errorf("unsupported dynamodb url scheme %q", endpoint.Scheme))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, configurationError(BackendDynamoDB, fmt.Errorf("failed to load aws config: %w", err))
	}

	client := dynamodb.NewFromConfig(awsCfg, clientOpts...)
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.TableName)}); err != nil {
		return nil, connectivityError(BackendDynamoDB, "open", err)
	}

	return NewDynamoDBStore(client, cfg.TableName, opts...), nil
}

func (s *DynamoDBStore) Exists(ctx context.Context, key, appID string) (Claim, error) {
	if s == nil || s.client == nil {
		return Claim{}, connectivityError(BackendDynamoDB, "exists", errors.New("store is not initialized"))
	}

	fullKey := CombineKey(key, appID)
	now := s.opts.now()

	item, err := s.marshalItem(fullKey, NewInProgress(), s.opts.defaultTTL, now)
	if err != nil {
		return Claim{}, serializationError(BackendDynamoDB, "exists", err)
	}

	// Items past expires_at may linger until DynamoDB reaps them; they count as absent.
	condition := expression.AttributeNotExists(expression.Name(dynamoAttrKey)).
		Or(expression.Name(dynamoAttrExpiresAt).LessThanEqual(expression.Value(now.Unix())))
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return Claim{}, serializationError(BackendDynamoDB, "exists", fmt.Errorf("failed to build condition: %w", err))
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(s.table),
		Item:                                item,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		s.opts.logger.Debug("idempotency key claimed", slog.String("backend", string(BackendDynamoDB)), slog.String("key", fullKey))
		return createdClaim(), nil
	}

	var conditionFailed *types.ConditionalCheckFailedException
	if !errors.As(err, &conditionFailed) {
		return Claim{}, connectivityError(BackendDynamoDB, "exists", err)
	}

	existing := conditionFailed.Item
	if len(existing) == 0 {
		existing, err = s.readItem(ctx, fullKey)
		if err != nil {
			return Claim{}, err
		}
	}

	record, err := unmarshalDynamoRecord(existing)
	if err != nil {
		return Claim{}, serializationError(BackendDynamoDB, "exists", err)
	}
	if err := checkStored(BackendDynamoDB, "exists", record); err != nil {
		return Claim{}, err
	}

	return existingClaim(record), nil
}

// readItem is only used to report the winner when the conditional write did
// not return it; the claim itself was already decided by PutItem.
func (s *DynamoDBStore) readItem(ctx context.Context, fullKey string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            dynamoKey(fullKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, connectivityError(BackendDynamoDB, "exists", err)
	}
	if len(out.Item) == 0 {
		return nil, connectivityError(BackendDynamoDB, "exists", errors.New("record changed during claim, retry"))
	}
	return out.Item, nil
}

func (s *DynamoDBStore) Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return connectivityError(BackendDynamoDB, "put", errors.New("store is not initialized"))
	}
	if err := validateRecord(BackendDynamoDB, "put", record); err != nil {
		return err
	}

	item, err := s.marshalItem(CombineKey(key, appID), record, s.opts.effectiveTTL(ttl), s.opts.now())
	if err != nil {
		return serializationError(BackendDynamoDB, "put", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return connectivityError(BackendDynamoDB, "put", err)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, key, appID string) error {
	if s == nil || s.client == nil {
		return connectivityError(BackendDynamoDB, "delete", errors.New("store is not initialized"))
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       dynamoKey(CombineKey(key, appID)),
	}); err != nil {
		return connectivityError(BackendDynamoDB, "delete", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoDBStore) Close() error {
	return nil
}

func (s *DynamoDBStore) marshalItem(fullKey string, record Record, ttl time.Duration, now time.Time) (map[string]types.AttributeValue, error) {
	item := dynamoItem{
		Key:      fullKey,
		Status:   record.Status,
		Response: record.Response,
	}
	if ttl > 0 {
		item.ExpiresAt = now.Add(ttl).Unix()
		if item.ExpiresAt <= now.Unix() {
			item.ExpiresAt = now.Unix() + 1
		}
	}

	attrs, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return attrs, nil
}

func unmarshalDynamoRecord(attrs map[string]types.AttributeValue) (Record, error) {
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(attrs, &item); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if !item.Status.Valid() {
		return Record{}, fmt.Errorf("stored item has unknown %s", item.Status)
	}
	return Record{Status: item.Status, Response: item.Response}, nil
}

func dynamoKey(fullKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoAttrKey: &types.AttributeValueMemberS{Value: fullKey},
	}
}
