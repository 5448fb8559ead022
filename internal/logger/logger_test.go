package logger

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("not-a-level", "development")
	if got := l.Level(); got != "info" {
		t.Fatalf("level = %q, want info", got)
	}
}

func TestNewParsesLevel(t *testing.T) {
	l := New("debug", "production")
	if got := l.Level(); got != "debug" {
		t.Fatalf("level = %q, want debug", got)
	}
}

func TestProperty_MessagesAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("printf arguments are rendered into the entry", prop.ForAll(
		func(name string, count int) bool {
			core, logs := observer.New(zap.DebugLevel)
			l := FromZap(zap.New(core))

			l.Info("uploaded %s (%d)", name, count)

			entries := logs.All()
			if len(entries) != 1 {
				return false
			}
			want := "uploaded " + name + " (" + strconv.Itoa(count) + ")"
			return entries[0].Message == want
		},
		gen.AlphaString(),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core)).With("shop", "teststore")

	l.Warn("rate limited")

	entries := logs.FilterField(zap.String("shop", "teststore")).All()
	if len(entries) != 1 {
		t.Fatalf("entries with shop field = %d, want 1", len(entries))
	}
}
