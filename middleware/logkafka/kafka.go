package logkafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Sink is the subset of *kafka.Writer the request logger needs.
type Sink interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns an async writer for the logs topic. Write errors are
// reported through the completion callback rather than to the request.
func NewKafkaWriter(brokers []string, topic string, onError func(error)) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(_ []kafka.Message, err error) {
			if err != nil && onError != nil {
				onError(err)
			}
		},
	}
}

type discard struct{}

func (discard) WriteMessages(context.Context, ...kafka.Message) error { return nil }

func (discard) Close() error { return nil }

// Discard is used when no brokers are configured; entries then only reach slog.
var Discard Sink = discard{}
