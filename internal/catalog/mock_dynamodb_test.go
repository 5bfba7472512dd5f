package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the catalog table. It only
// understands the expressions the Store actually sends.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	updateCalls int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) seed(item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := item["product_id"].(*types.AttributeValueMemberS).Value
	m.items[pk] = item
}

func (m *mockDynamo) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[productID]
	if !ok {
		return -1
	}
	n, _ := strconv.Atoi(item["stock"].(*types.AttributeValueMemberN).Value)
	return n
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Key["product_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &dyn.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range params.RequestItems {
		for _, key := range ka.Keys {
			pk := key["product_id"].(*types.AttributeValueMemberS).Value
			if item, ok := m.items[pk]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Item["product_id"].(*types.AttributeValueMemberS).Value
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(product_id) OR stock = :expected" {
		if existing, ok := m.items[pk]; ok {
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
			current := existing["stock"].(*types.AttributeValueMemberN).Value
			if current != expected {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Key["product_id"].(*types.AttributeValueMemberS).Value
	delete(m.items, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &dyn.ScanOutput{}
	for _, item := range m.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	pk := params.Key["product_id"].(*types.AttributeValueMemberS).Value
	item, exists := m.items[pk]

	cond := ""
	if params.ConditionExpression != nil {
		cond = *params.ConditionExpression
	}

	switch cond {
	case "stock >= :q":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		stock, _ := strconv.Atoi(item["stock"].(*types.AttributeValueMemberN).Value)
		q, _ := strconv.Atoi(params.ExpressionAttributeValues[":q"].(*types.AttributeValueMemberN).Value)
		if stock < q {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item["stock"] = &types.AttributeValueMemberN{Value: strconv.Itoa(stock - q)}

	case "attribute_exists(product_id)":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		stock, _ := strconv.Atoi(item["stock"].(*types.AttributeValueMemberN).Value)
		q, _ := strconv.Atoi(params.ExpressionAttributeValues[":q"].(*types.AttributeValueMemberN).Value)
		item["stock"] = &types.AttributeValueMemberN{Value: strconv.Itoa(stock + q)}

	case "attribute_exists(product_id) AND (attribute_not_exists(reviewer_ids) OR NOT contains(reviewer_ids, :uidstr))":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		uid := params.ExpressionAttributeValues[":uidstr"].(*types.AttributeValueMemberS).Value
		var ids []string
		if ss, ok := item["reviewer_ids"].(*types.AttributeValueMemberSS); ok {
			ids = ss.Value
		}
		for _, id := range ids {
			if id == uid {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
		item["reviewer_ids"] = &types.AttributeValueMemberSS{Value: append(ids, uid)}
		item["rating"] = params.ExpressionAttributeValues[":rating"]
		item["num_reviews"] = params.ExpressionAttributeValues[":nr"]
		var reviews []types.AttributeValue
		if l, ok := item["reviews"].(*types.AttributeValueMemberL); ok {
			reviews = l.Value
		}
		appended := params.ExpressionAttributeValues[":r"].(*types.AttributeValueMemberL).Value
		item["reviews"] = &types.AttributeValueMemberL{Value: append(reviews, appended...)}

	default:
		return nil, errors.New("unsupported condition: " + cond)
	}

	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	m.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
