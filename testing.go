package xmlcodec

// This file provides helpers for tests that exercise an Engine.

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

// NewTestEngine creates an engine that logs through t and collects
// metrics in memory. It fails the test on any option error.
func NewTestEngine(t testing.TB, opts ...Option) (*Engine, *InMemoryMetricsCollector) {
	t.Helper()
	metrics := NewInMemoryMetricsCollector()
	base := []Option{
		WithLogger(zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)),
		WithMetrics(metrics),
	}
	e, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("create test engine: %v", err)
	}
	return e, metrics
}

// Dump renders v with field names and types for diagnostics.
func Dump(v any) string {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	return cfg.Sdump(v)
}
