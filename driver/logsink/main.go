// Command logsink ships the request log topic into Elasticsearch.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go_trial/foodapi/config"
	"go_trial/foodapi/logsink"
	"go_trial/foodapi/telem"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	logger := telem.NewLogger(os.Stdout, cfg.Env, cfg.Log.Level).With("component", "logsink")

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Error("kafka.brokers is empty, nothing to consume")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	es, err := logsink.NewElastic(cfg.Elastic.Addresses)
	if err != nil {
		logger.Error("elasticsearch client", "error", err)
		os.Exit(1)
	}
	reader := logsink.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.LogTopic, cfg.Elastic.GroupID)
	defer reader.Close()

	sink := logsink.New(reader, es, logsink.Config{
		Index:         cfg.Elastic.Index,
		BatchSize:     cfg.Elastic.BatchSize,
		FlushInterval: cfg.Elastic.FlushInterval,
	}, logger)

	logger.Info("shipping request logs", "topic", cfg.Kafka.LogTopic, "index", cfg.Elastic.Index)
	if err := sink.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("log sink stopped", "error", err)
		os.Exit(1)
	}
}
