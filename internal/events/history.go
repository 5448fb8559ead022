// Package events publishes upload history records to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"shopclone/internal/logger"
	"shopclone/internal/models"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HistoryPublisher writes one message per upload, keyed by history id.
type HistoryPublisher struct {
	writer MessageWriter
	topic  string
	logger *logger.Logger
}

func NewHistoryPublisher(brokers []string, topic string, log *logger.Logger) *HistoryPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return NewHistoryPublisherWithWriter(w, topic, log)
}

func NewHistoryPublisherWithWriter(w MessageWriter, topic string, log *logger.Logger) *HistoryPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &HistoryPublisher{writer: w, topic: topic, logger: log}
}

// RecordHistory sends h to the history topic.
func (p *HistoryPublisher) RecordHistory(ctx context.Context, h models.UploadHistory) error {
	value, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode upload history: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(h.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("upload.history")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish upload history to %s: %w", p.topic, err)
	}
	p.logger.Debug("Published upload history %s to %s", h.ID, p.topic)
	return nil
}

func (p *HistoryPublisher) Close() error {
	return p.writer.Close()
}
