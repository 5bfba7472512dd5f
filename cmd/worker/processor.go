package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/awsx"
	"github.com/hoopthreads/storefront/internal/orders"
)

const metricNamespace = "Storefront/Fulfillment"

// Processor consumes order-placed events and advances each order through the
// fulfillment lifecycle.
type Processor struct {
	orderStore *orders.Store
	cloudwatch awsx.CloudWatchAPI
	log        *logrus.Logger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *awsx.Clients, ordersTable string, log *logrus.Logger) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		orderStore: orders.NewStore(clients.DynamoDB, ordersTable),
		cloudwatch: clients.CloudWatch,
		log:        log,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Returning the error makes the runtime redeliver the batch;
			// poisoned messages end up on the DLQ.
			p.log.WithError(err).Error("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg fulfillmentMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"order_id":       msg.OrderID,
		"correlation_id": msg.CorrelationID,
	}).Info("received fulfillment event")

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		// Should never happen; DLQ if it does
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	if err := p.orderStore.IncrementAttempts(ctx, msg.OrderID); err != nil {
		p.log.WithError(err).WithField("order_id", msg.OrderID).Warn("failed to count attempt")
	}

	// PENDING -> PROCESSING; duplicates and competing workers are swallowed
	err = p.orderStore.UpdateFulfillment(ctx, msg.OrderID, orders.FulfillmentPending, orders.FulfillmentProcessing)
	if err == orders.ErrStatusMismatch {
		current, gerr := p.orderStore.Get(ctx, msg.OrderID)
		if gerr != nil || current == nil {
			return fmt.Errorf("failed to re-fetch order %s: %v", msg.OrderID, gerr)
		}
		switch current.Fulfillment {
		case orders.FulfillmentCompleted:
			p.log.WithField("order_id", msg.OrderID).Info("already completed")
			return nil
		case orders.FulfillmentProcessing:
			p.log.WithField("order_id", msg.OrderID).Info("duplicate fulfillment event")
			return nil
		case orders.FulfillmentFailed:
			return fmt.Errorf("order %s is already FAILED", msg.OrderID)
		default:
			return fmt.Errorf("unexpected fulfillment status for order %s: %s", msg.OrderID, current.Fulfillment)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to move order to PROCESSING: %w", err)
	}

	// PROCESSING -> COMPLETED
	if err := p.orderStore.UpdateFulfillment(ctx, msg.OrderID, orders.FulfillmentProcessing, orders.FulfillmentCompleted); err != nil {
		return fmt.Errorf("failed to move order to COMPLETED: %w", err)
	}

	p.putFulfilledMetric(ctx, order.TotalPrice)

	p.log.WithField("order_id", msg.OrderID).Info("order fulfilled")
	return nil
}

// putFulfilledMetric is best-effort; a metrics outage must not fail fulfillment.
func (p *Processor) putFulfilledMetric(ctx context.Context, total float64) {
	if p.cloudwatch == nil {
		return
	}
	_, err := p.cloudwatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(metricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String("OrdersFulfilled"),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(1),
			},
			{
				MetricName: sdkaws.String("FulfilledOrderValue"),
				Unit:       cwtypes.StandardUnitNone,
				Value:      sdkaws.Float64(total),
			},
		},
	})
	if err != nil {
		p.log.WithError(err).Warn("failed to put fulfillment metrics")
	}
}
