// Package events publishes order lifecycle events to Kafka so downstream
// consumers (notifications, analytics) can follow an order without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go_trial/foodapi/models"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvent is the message body. Items are omitted; consumers that need them
// read the order by id.
type OrderEvent struct {
	Type        string             `json:"type"`
	OrderID     string             `json:"orderId"`
	Code        string             `json:"code"`
	CustomerID  string             `json:"customerId"`
	VendorID    string             `json:"vendorId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount models.Amount      `json:"totalAmount"`
	ReadyTime   int                `json:"readyTime"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type KafkaPublisher struct {
	writer Writer
	now    func() time.Time
}

func NewKafkaPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// NewKafkaWriter builds a writer for the order topic. Messages are keyed by
// vendor id so one vendor's events stay ordered on a single partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, eventType string, o *models.Order) error {
	now := p.now().UTC()
	body, err := json.Marshal(OrderEvent{
		Type:        eventType,
		OrderID:     o.ID.Hex(),
		Code:        o.OrderID,
		CustomerID:  o.CustomerID.Hex(),
		VendorID:    o.VendorID.Hex(),
		Status:      o.OrderStatus,
		TotalAmount: o.TotalAmount,
		ReadyTime:   o.ReadyTime,
		OccurredAt:  now,
	})
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:     []byte(o.VendorID.Hex()),
		Value:   body,
		Time:    now,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write %s: %w", eventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Discard drops every event. It is used when no brokers are configured.
type Discard struct{}

func (Discard) PublishOrderEvent(context.Context, string, *models.Order) error { return nil }

func (Discard) Close() error { return nil }
