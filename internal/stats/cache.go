package stats

import (
	"context"
	"fmt"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hoopthreads/storefront/internal/awsx"
)

// Cache stores upstream responses in DynamoDB with a TTL so repeated lookups
// do not burn the call budget.
type Cache struct {
	client    awsx.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewCache returns a Cache bound to a DynamoDB table with a per-entry TTL.
func NewCache(client awsx.DynamoDBAPI, tableName string, ttl time.Duration) *Cache {
	return &Cache{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

// Get returns the cached payload for key, or ("", false, nil) on a miss.
// Entries past their expiry are treated as misses even if DynamoDB TTL has
// not reaped them yet.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := c.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &c.tableName,
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}

	exp, ok := out.Item["expires_at"].(*types.AttributeValueMemberN)
	if ok {
		var expires int64
		if _, err := fmt.Sscanf(exp.Value, "%d", &expires); err == nil {
			if c.nowFunc().Unix() >= expires {
				return "", false, nil
			}
		}
	}

	payload, ok := out.Item["payload"].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, nil
	}
	return payload.Value, true, nil
}

// Put stores payload under key with the configured TTL.
func (c *Cache) Put(ctx context.Context, key, payload string) error {
	expires := c.nowFunc().Add(c.ttl).Unix()
	_, err := c.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &c.tableName,
		Item: map[string]types.AttributeValue{
			"cache_key":  &types.AttributeValueMemberS{Value: key},
			"payload":    &types.AttributeValueMemberS{Value: payload},
			"expires_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)},
		},
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}
