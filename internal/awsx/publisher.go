package awsx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// OrderPlacedEvent is the payload sent to the fulfillment queue when an order
// is created.
type OrderPlacedEvent struct {
	OrderID        string  `json:"order_id"`
	UserID         string  `json:"user_id"`
	TotalPrice     float64 `json:"total_price"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
	CorrelationID  string  `json:"correlation_id,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderPlaced serializes the event and sends it to the fulfillment
// queue. Event fields are mirrored as message attributes for filtering.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgBody := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msgBody,
	}

	attrs := map[string]string{
		"order_id": ev.OrderID,
	}
	if ev.IdempotencyKey != "" {
		attrs["idempotency_key"] = ev.IdempotencyKey
	}
	if ev.CorrelationID != "" {
		attrs["correlation_id"] = ev.CorrelationID
	}

	msgAttrs := map[string]sqstypes.MessageAttributeValue{}
	for k, v := range attrs {
		v := v
		msgAttrs[k] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: &v,
		}
	}
	input.MessageAttributes = msgAttrs

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
