package catalog

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

// ErrInsufficientStock indicates a conditional stock decrement failed because
// the remaining stock did not cover the requested quantity.
var ErrInsufficientStock = errors.New("stock below requested quantity/conditional failed")

// ErrDuplicateReview indicates the reviewer already has a review on the product.
var ErrDuplicateReview = errors.New("reviewer already present/conditional failed")

// ErrStockConflict indicates a checked product write observed a stale stock
// count (an order placement got there first).
var ErrStockConflict = errors.New("stock changed concurrently/conditional failed")

// Store encapsulates operations on the catalog table.
type Store struct {
	client    awsx.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new catalog Store.
func NewStore(client awsx.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches a product by product_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, productID string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}

// BatchGet fetches the products matching the given ids in one read. IDs with
// no matching product are simply absent from the result; callers decide
// whether that is an error.
func (s *Store) BatchGet(ctx context.Context, productIDs []string) ([]Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	keys := make([]map[string]types.AttributeValue, 0, len(productIDs))
	for _, id := range productIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: id},
		})
	}

	out, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			s.tableName: {Keys: keys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch get items: %w", err)
	}

	items := out.Responses[s.tableName]
	products := make([]Product, 0, len(items))
	for _, item := range items {
		var p Product
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Put writes the product, stamping created/updated times.
func (s *Store) Put(ctx context.Context, p Product) (*Product, error) {
	now := s.nowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put item: %w", err)
	}
	return &p, nil
}

// PutChecked writes the product only if the stored stock still equals
// expectedStock. Admin edits go through this so they serialize against
// concurrent order placement the same way decrements do.
// Returns ErrStockConflict when the condition fails.
func (s *Store) PutChecked(ctx context.Context, p Product, expectedStock int) (*Product, error) {
	now := s.nowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(product_id) OR stock = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedStock)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrStockConflict
		}
		return nil, fmt.Errorf("put item (checked): %w", err)
	}
	return &p, nil
}

// Delete removes a product from the catalog.
func (s *Store) Delete(ctx context.Context, productID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// List scans the whole catalog. The catalog is small (a jersey shop), so a
// scan is acceptable; callers paginate in memory.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	var products []Product
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for _, item := range out.Items {
			var p Product
			if err := attributevalue.UnmarshalMap(item, &p); err != nil {
				return nil, fmt.Errorf("unmarshal product: %w", err)
			}
			products = append(products, p)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return products, nil
}

// DecrementStock atomically subtracts qty from the product's stock. The write
// only commits when the remaining stock covers the request, so concurrent
// orders can never oversell: DynamoDB serializes the conditional updates.
// Returns ErrInsufficientStock when the condition fails.
func (s *Store) DecrementStock(ctx context.Context, productID string, qty int) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    awsString("SET stock = stock - :q, updated_at = :ua"),
		ConditionExpression: awsString("stock >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", qty)},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("update item (decrement stock): %w", err)
	}
	return nil
}

// RestoreStock adds qty back to the product's stock. Used to revert earlier
// decrements when a later step of order placement fails.
func (s *Store) RestoreStock(ctx context.Context, productID string, qty int) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    awsString("SET stock = stock + :q, updated_at = :ua"),
		ConditionExpression: awsString("attribute_exists(product_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", qty)},
			":ua": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("update item (restore stock): %w", err)
	}
	return nil
}

// AppendReview appends a review and updates the aggregate rating in one
// conditional write. newRating and newNumReviews are computed by the caller
// from the product snapshot; the reviewer_ids set condition guards against a
// second review by the same user racing in between.
// Returns ErrDuplicateReview when the condition fails.
func (s *Store) AppendReview(ctx context.Context, productID string, review Review, newRating float64, newNumReviews int) error {
	now := s.nowFunc()

	reviewAttr, err := attributevalue.MarshalMap(review)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression: awsString(
			"SET reviews = list_append(if_not_exists(reviews, :empty), :r), rating = :rating, num_reviews = :nr, updated_at = :ua ADD reviewer_ids :uid"),
		ConditionExpression: awsString(
			"attribute_exists(product_id) AND (attribute_not_exists(reviewer_ids) OR NOT contains(reviewer_ids, :uidstr))"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty":  &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":r":      &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: reviewAttr}}},
			":rating": &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", newRating)},
			":nr":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newNumReviews)},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":uid":    &types.AttributeValueMemberSS{Value: []string{review.UserID}},
			":uidstr": &types.AttributeValueMemberS{Value: review.UserID},
		},
	}

	_, err = s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("update item (append review): %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
