package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hoopthreads/storefront/internal/awsx"
)

// ErrAlreadyPaid indicates MarkPaid found the order already paid.
var ErrAlreadyPaid = errors.New("order already paid/conditional failed")

// ErrAlreadyDelivered indicates MarkDelivered found the order already delivered.
var ErrAlreadyDelivered = errors.New("order already delivered/conditional failed")

// ErrStatusMismatch indicates a fulfillment transition found an unexpected
// current status.
var ErrStatusMismatch = errors.New("fulfillment status mismatch/conditional failed")

// Store encapsulates operations on the orders table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order. order.OrderID must be set by the caller; the
// conditional write guards against id collisions.
func (s *Store) Create(ctx context.Context, order Order) (*Order, error) {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Fulfillment == "" {
		order.Fulfillment = FulfillmentPending
	}

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("put item: %w", err)
	}
	return &order, nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// ListByUser returns all orders belonging to userID.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.scan(ctx, awsString("user_id = :uid"), map[string]types.AttributeValue{
		":uid": &types.AttributeValueMemberS{Value: userID},
	})
}

// List returns every order. Admin surface only.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	return s.scan(ctx, nil, nil)
}

// FindByTransactionID returns the order whose payment snapshot recorded the
// given gateway transaction id, or (nil, nil) if no order has. Used to keep
// one capture from paying for two orders.
func (s *Store) FindByTransactionID(ctx context.Context, transactionID string) (*Order, error) {
	matches, err := s.scan(ctx, awsString("payment_result.transaction_id = :tid"), map[string]types.AttributeValue{
		":tid": &types.AttributeValueMemberS{Value: transactionID},
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (s *Store) scan(ctx context.Context, filter *string, values map[string]types.AttributeValue) ([]Order, error) {
	var out []Order
	var startKey map[string]types.AttributeValue
	for {
		res, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                 &s.tableName,
			FilterExpression:          filter,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for _, item := range res.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			out = append(out, o)
		}
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		startKey = res.LastEvaluatedKey
	}
	return out, nil
}

// MarkPaid flips is_paid and records the payment snapshot. The conditional
// expression only fires on an unpaid order, so paid_at can never regress.
// Returns ErrAlreadyPaid when the order was paid before this call.
func (s *Store) MarkPaid(ctx context.Context, orderID string, result PaymentResult) (*Order, error) {
	now := s.nowFunc()

	resultAttr, err := attributevalue.MarshalMap(result)
	if err != nil {
		return nil, fmt.Errorf("marshal payment result: %w", err)
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET is_paid = :true, paid_at = :pa, payment_result = :pr, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id) AND is_paid = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":pa":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":pr":    &types.AttributeValueMemberM{Value: resultAttr},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrAlreadyPaid
		}
		return nil, fmt.Errorf("update item (mark paid): %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// MarkDelivered flips is_delivered. Same conditional discipline as MarkPaid.
// Returns ErrAlreadyDelivered when the order was delivered before this call.
func (s *Store) MarkDelivered(ctx context.Context, orderID string) (*Order, error) {
	now := s.nowFunc()

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET is_delivered = :true, delivered_at = :da, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(order_id) AND is_delivered = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":da":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrAlreadyDelivered
		}
		return nil, fmt.Errorf("update item (mark delivered): %w", err)
	}

	var o Order
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// UpdateFulfillment conditionally moves the fulfillment status from expected
// to next. Returns ErrStatusMismatch if the current status differs.
func (s *Store) UpdateFulfillment(ctx context.Context, orderID, expected, next string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:    awsString("SET fulfillment = :next, updated_at = :ua"),
		ConditionExpression: awsString("fulfillment = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":     &types.AttributeValueMemberS{Value: next},
			":expected": &types.AttributeValueMemberS{Value: expected},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item (fulfillment): %w", err)
	}
	return nil
}

// IncrementAttempts increases the attempts counter by 1 (useful for worker retries)
func (s *Store) IncrementAttempts(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
