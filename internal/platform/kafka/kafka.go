// Package kafka builds the franz-go producer used for progress events.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"keystone/internal/platform/config"
)

// NewProducer creates a client producing to cfg.Topic by default.
// Returns nil when no brokers are configured.
func NewProducer(cfg config.Kafka, logger *slog.Logger) (*kgo.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
		kgo.ClientID("keystone-onboarding"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	logger.Info("kafka producer configured", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return client, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Close flushes buffered records before closing the client.
func Close(ctx context.Context, client *kgo.Client) {
	if client == nil {
		return
	}
	_ = client.Flush(ctx)
	client.Close()
}
