// Package kafka publishes recommendations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/stellaview/internal/config"
	"github.com/couchcryptid/stellaview/internal/pipeline"
)

// Writer produces recommendation messages to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Load serializes and publishes one recommendation.
func (w *Writer) Load(ctx context.Context, rec pipeline.Recommendation) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write recommendation: %w", err)
	}
	w.logger.Debug("recommendation written", "search_id", rec.SearchID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Recommendation into a Kafka message keyed by
// search id.
func serializeToMessage(rec pipeline.Recommendation) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize recommendation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.SearchID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind(rec))},
			{Key: "generation", Value: []byte(strconv.FormatUint(uint64(rec.Generation), 10))},
			{Key: "created_at", Value: []byte(rec.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// kind reports whether the recommendation answers for tonight or fell back to
// the weekly outlook.
func kind(rec pipeline.Recommendation) string {
	if rec.Tonight != nil && len(rec.Tonight.Sites) > 0 {
		return "tonight"
	}
	if rec.Outlook != nil && len(rec.Outlook.Sites) > 0 {
		return "outlook"
	}
	return "none"
}
