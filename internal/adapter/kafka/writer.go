package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crimewatch-service/internal/config"
	"github.com/couchcryptid/crimewatch-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the digest writer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes incident digests to a Kafka topic.
// It implements domain.DigestPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured digest topic.
// Digests for the same postcode hash to the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDigestTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDigest serializes and writes one digest.
func (w *Writer) PublishDigest(ctx context.Context, digest domain.Digest) error {
	msg, err := serializeToMessage(digest)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write digest %s: %w", digest.ID, err)
	}
	w.logger.Debug("digest published", "digest_id", digest.ID, "postal_code", digest.PostalCode, "incidents", len(digest.Incidents))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Digest into a Kafka message keyed by postcode.
func serializeToMessage(digest domain.Digest) (kafkago.Message, error) {
	data, err := json.Marshal(digest)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize digest: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(digest.PostalCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "postal_code", Value: []byte(digest.PostalCode)},
			{Key: "fetched_at", Value: []byte(digest.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
