package orders

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory stand-in for the orders table. It only handles
// the expressions the Store actually sends.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Item["order_id"].(*types.AttributeValueMemberS).Value
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.items[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk := params.Key["order_id"].(*types.AttributeValueMemberS).Value
	delete(m.items, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) BatchGetItem(ctx context.Context, params *dyn.BatchGetItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchGetItemOutput, error) {
	return &dyn.BatchGetItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &dyn.ScanOutput{}
	for _, item := range m.items {
		if params.FilterExpression != nil {
			switch *params.FilterExpression {
			case "user_id = :uid":
				uid := params.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberS).Value
				if v, ok := item["user_id"].(*types.AttributeValueMemberS); !ok || v.Value != uid {
					continue
				}
			case "payment_result.transaction_id = :tid":
				tid := params.ExpressionAttributeValues[":tid"].(*types.AttributeValueMemberS).Value
				pr, ok := item["payment_result"].(*types.AttributeValueMemberM)
				if !ok {
					continue
				}
				if v, ok := pr.Value["transaction_id"].(*types.AttributeValueMemberS); !ok || v.Value != tid {
					continue
				}
			default:
				return nil, errors.New("unsupported filter: " + *params.FilterExpression)
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := params.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, exists := m.items[pk]

	cond := ""
	if params.ConditionExpression != nil {
		cond = *params.ConditionExpression
	}

	switch cond {
	case "attribute_exists(order_id) AND is_paid = :false":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		if v, ok := item["is_paid"].(*types.AttributeValueMemberBOOL); ok && v.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item["is_paid"] = &types.AttributeValueMemberBOOL{Value: true}
		item["paid_at"] = params.ExpressionAttributeValues[":pa"]
		item["payment_result"] = params.ExpressionAttributeValues[":pr"]

	case "attribute_exists(order_id) AND is_delivered = :false":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		if v, ok := item["is_delivered"].(*types.AttributeValueMemberBOOL); ok && v.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item["is_delivered"] = &types.AttributeValueMemberBOOL{Value: true}
		item["delivered_at"] = params.ExpressionAttributeValues[":da"]

	case "fulfillment = :expected":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		curr, ok := item["fulfillment"].(*types.AttributeValueMemberS)
		if !ok || curr.Value != expected {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item["fulfillment"] = params.ExpressionAttributeValues[":next"]

	case "":
		// attempts counter
		if !exists {
			return nil, errors.New("item not found")
		}
		if _, ok := params.ExpressionAttributeValues[":inc"]; ok {
			n := 0
			if v, ok := item["attempts"].(*types.AttributeValueMemberN); ok {
				n, _ = strconv.Atoi(v.Value)
			}
			item["attempts"] = &types.AttributeValueMemberN{Value: strconv.Itoa(n + 1)}
		}

	default:
		return nil, errors.New("unsupported condition: " + cond)
	}

	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	m.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
