// Package logsink moves request log entries from the Kafka logs topic into an
// Elasticsearch index in bulk batches.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
)

type Entry struct {
	Level     string            `json:"level"`
	Module    string            `json:"module"`
	Message   string            `json:"message"`
	TraceID   string            `json:"trace_id"`
	Env       string            `json:"env"`
	Timestamp time.Time         `json:"timestamp"`
	Extra     map[string]string `json:"extra"`
}

// Reader is the subset of *kafka.Reader used by the sink. Offsets are
// committed only after a batch has been indexed.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Indexer interface {
	Bulk(ctx context.Context, index string, body io.Reader) error
}

type Config struct {
	Index         string
	BatchSize     int
	FlushInterval time.Duration
}

type Sink struct {
	reader  Reader
	indexer Indexer
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

func New(r Reader, idx Indexer, cfg Config, logger *slog.Logger) *Sink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.Index == "" {
		cfg.Index = "logs"
	}
	return &Sink{reader: r, indexer: idx, cfg: cfg, logger: logger, now: time.Now}
}

// Run consumes until ctx is cancelled, flushing whenever the batch is full or
// the flush interval passes. Whatever is buffered is flushed before returning.
func (s *Sink) Run(ctx context.Context) error {
	msgs := make(chan kafka.Message)
	readErr := make(chan error, 1)
	go func() {
		defer close(msgs)
		for {
			m, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					readErr <- err
				}
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	var (
		batch   = make([]Entry, 0, s.cfg.BatchSize)
		pending = make([]kafka.Message, 0, s.cfg.BatchSize)
	)
	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if len(batch) > 0 {
			if err := s.index(ctx, batch); err != nil {
				s.logger.ErrorContext(ctx, "bulk index failed", "entries", len(batch), "error", err)
				return
			}
		}
		if err := s.reader.CommitMessages(ctx, pending...); err != nil {
			s.logger.ErrorContext(ctx, "commit offsets failed", "error", err)
		}
		s.logger.InfoContext(ctx, "log batch indexed", "entries", len(batch))
		batch = batch[:0]
		pending = pending[:0]
	}

	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				flush(context.WithoutCancel(ctx))
				select {
				case err := <-readErr:
					return fmt.Errorf("logsink: read: %w", err)
				default:
					return nil
				}
			}
			pending = append(pending, m)
			var e Entry
			if err := json.Unmarshal(m.Value, &e); err != nil {
				s.logger.WarnContext(ctx, "skipping undecodable log entry", "offset", m.Offset, "error", err)
			} else {
				if e.Timestamp.IsZero() {
					e.Timestamp = s.now().UTC()
				}
				batch = append(batch, e)
			}
			if len(pending) >= s.cfg.BatchSize {
				flush(ctx)
				ticker.Reset(s.cfg.FlushInterval)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (s *Sink) index(ctx context.Context, batch []Entry) error {
	var buf bytes.Buffer
	for _, e := range batch {
		doc, err := json.Marshal(e)
		if err != nil {
			return err
		}
		buf.WriteString("{\"index\":{}}\n")
		buf.Write(doc)
		buf.WriteByte('\n')
	}
	return s.indexer.Bulk(ctx, s.cfg.Index, &buf)
}

// Elastic adapts the official client to Indexer.
type Elastic struct {
	client *elasticsearch.Client
}

func NewElastic(addresses []string) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("logsink: elasticsearch client: %w", err)
	}
	return &Elastic{client: client}, nil
}

func (e *Elastic) Bulk(ctx context.Context, index string, body io.Reader) error {
	res, err := e.client.Bulk(body, e.client.Bulk.WithContext(ctx), e.client.Bulk.WithIndex(index))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.New("logsink: bulk request failed: " + res.Status())
	}
	return nil
}

// NewKafkaReader builds a consumer group reader for the logs topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
}
