package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"shopclone/internal/logger"
	"shopclone/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestRecordHistoryWritesKeyedMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewHistoryPublisherWithWriter(w, "upload-history", logger.NewNop())

	h := models.NewUploadHistory("https://source.myshopify.com", "dest",
		[]models.Product{{Name: "Mug"}}, nil)
	if err := p.RecordHistory(context.Background(), h); err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != h.ID {
		t.Fatalf("key = %q, want %q", msg.Key, h.ID)
	}
	var decoded models.UploadHistory
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != h.ID || decoded.MyStoreURL != "dest" || len(decoded.ProductNames) != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close")
	}
}

func TestRecordHistoryWrapsWriterError(t *testing.T) {
	cause := errors.New("broker down")
	p := NewHistoryPublisherWithWriter(&fakeWriter{err: cause}, "upload-history", nil)

	err := p.RecordHistory(context.Background(), models.UploadHistory{ID: "x"})
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
}
