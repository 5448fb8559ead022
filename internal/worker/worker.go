package worker

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"shopclone/internal/config"
	"shopclone/internal/logger"
	"shopclone/internal/worker/processors"
)

// MessageReader is the subset of *kafka.Reader the worker consumes.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor *processors.HistoryProcessor
}

func New(cfg *config.Config, logger *logger.Logger, reg prometheus.Registerer) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers(),
		GroupID:        cfg.HistoryGroupID,
		Topic:          cfg.HistoryTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, logger, reg)
}

func NewWithReader(reader MessageReader, log *logger.Logger, reg prometheus.Registerer) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		logger:    log,
		reader:    reader,
		processor: processors.NewHistoryProcessor(log, reg),
	}
}

// Run consumes history messages until ctx is cancelled or the reader is
// closed. Malformed messages are logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started, listening for upload history...")

	for {
		message, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		w.logger.Debug("Received message %s/%d@%d", message.Topic, message.Partition, message.Offset)

		if _, err := w.processor.Process(message.Value); err != nil {
			w.logger.Warn("Skipping message at offset %d: %v", message.Offset, truncate(err.Error(), 200))
			continue
		}
	}
}

func (w *Worker) Stats() processors.Stats {
	return w.processor.Stats()
}

func (w *Worker) Stop() error {
	w.logger.Info("Stopping worker...")
	s := w.processor.Stats()
	w.logger.Info("Consumed %d upload records (%d skipped, %d products, %d collections)",
		s.Processed, s.Skipped, s.Products, s.Collections)
	return w.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
