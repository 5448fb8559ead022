package processors

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"shopclone/internal/logger"
	"shopclone/internal/models"
)

// Stats is a running summary of consumed history records.
type Stats struct {
	Processed   int64
	Skipped     int64
	Products    int64
	Collections int64
}

// HistoryProcessor decodes and validates upload history messages.
type HistoryProcessor struct {
	logger *logger.Logger
	events *prometheus.CounterVec

	processed   atomic.Int64
	skipped     atomic.Int64
	products    atomic.Int64
	collections atomic.Int64
}

// NewHistoryProcessor registers its counter on reg when reg is non-nil.
func NewHistoryProcessor(log *logger.Logger, reg prometheus.Registerer) *HistoryProcessor {
	if log == nil {
		log = logger.NewNop()
	}
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopclone_history_events_total",
			Help: "Upload history messages consumed by outcome.",
		},
		[]string{"outcome"},
	)
	if reg != nil {
		reg.MustRegister(events)
	}
	return &HistoryProcessor{logger: log, events: events}
}

// Process handles one message value. A returned error means the message
// was malformed and has been counted as skipped.
func (p *HistoryProcessor) Process(value []byte) (models.UploadHistory, error) {
	var h models.UploadHistory
	if err := json.Unmarshal(value, &h); err != nil {
		p.skip()
		return h, fmt.Errorf("failed to parse upload history: %w", err)
	}
	if err := h.Validate(); err != nil {
		p.skip()
		return h, fmt.Errorf("invalid upload history %q: %w", h.ID, err)
	}

	p.processed.Add(1)
	p.products.Add(int64(len(h.ProductNames)))
	p.collections.Add(int64(len(h.CollectionNames)))
	p.events.WithLabelValues("processed").Inc()

	source := h.ScrapeStoreURL
	if source == "" {
		source = "unknown source"
	}
	p.logger.Info("Upload %s: %d products and %d collections from %s to %s at %s",
		h.ID, len(h.ProductNames), len(h.CollectionNames), source, h.MyStoreURL, h.DateTime.Format("2006-01-02 15:04:05"))
	return h, nil
}

func (p *HistoryProcessor) Stats() Stats {
	return Stats{
		Processed:   p.processed.Load(),
		Skipped:     p.skipped.Load(),
		Products:    p.products.Load(),
		Collections: p.collections.Load(),
	}
}

func (p *HistoryProcessor) skip() {
	p.skipped.Add(1)
	p.events.WithLabelValues("skipped").Inc()
}
