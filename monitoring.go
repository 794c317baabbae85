package xmlcodec

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector defines the interface for collecting and reporting metrics
type MetricsCollector interface {
	// Counters
	IncrementCounter(name string, tags map[string]string)
	IncrementCounterBy(name string, value int64, tags map[string]string)

	// Gauges
	SetGauge(name string, value float64, tags map[string]string)

	// Histograms/Timing
	RecordTiming(name string, duration time.Duration, tags map[string]string)

	// Flush any buffered metrics
	Flush() error
}

// ObservabilityHook defines hooks for monitoring codec operations
type ObservabilityHook interface {
	// Called before an operation starts
	OnProcessStart(operation string, metadata map[string]any)

	// Called after an operation completes (success or failure)
	OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when errors occur
	OnError(operation string, err error, metadata map[string]any)

	// Called when a serializer is built for a type the engine had not
	// seen before
	OnSerializerBuilt(typeName string, members int)
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) IncrementCounter(name string, tags map[string]string)                {}
func (n *NoOpMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {}
func (n *NoOpMetricsCollector) SetGauge(name string, value float64, tags map[string]string)         {}
func (n *NoOpMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
}
func (n *NoOpMetricsCollector) Flush() error { return nil }

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {}
func (n *NoOpObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(operation string, err error, metadata map[string]any) {}
func (n *NoOpObservabilityHook) OnSerializerBuilt(typeName string, members int)               {}

// InMemoryMetricsCollector keeps metrics in memory. It is meant for tests
// and the CLI summary output.
type InMemoryMetricsCollector struct {
	mu       sync.Mutex
	counters map[string]*int64
	gauges   map[string]float64
	timings  []TimingMetric
}

type TimingMetric struct {
	Name     string
	Duration time.Duration
	Tags     map[string]string
	Time     time.Time
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		counters: make(map[string]*int64),
		gauges:   make(map[string]float64),
	}
}

func (m *InMemoryMetricsCollector) IncrementCounter(name string, tags map[string]string) {
	m.IncrementCounterBy(name, 1, tags)
}

func (m *InMemoryMetricsCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	key := buildKey(name, tags)
	m.mu.Lock()
	counter, exists := m.counters[key]
	if !exists {
		counter = new(int64)
		m.counters[key] = counter
	}
	m.mu.Unlock()
	atomic.AddInt64(counter, value)
}

func (m *InMemoryMetricsCollector) SetGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[buildKey(name, tags)] = value
}

func (m *InMemoryMetricsCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings = append(m.timings, TimingMetric{
		Name:     name,
		Duration: duration,
		Tags:     copyTags(tags),
		Time:     time.Now(),
	})
}

func (m *InMemoryMetricsCollector) Flush() error {
	return nil
}

// GetCounterValue returns the current value of a counter
func (m *InMemoryMetricsCollector) GetCounterValue(name string, tags map[string]string) int64 {
	m.mu.Lock()
	counter, exists := m.counters[buildKey(name, tags)]
	m.mu.Unlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(counter)
}

// GetGaugeValue returns the current value of a gauge
func (m *InMemoryMetricsCollector) GetGaugeValue(name string, tags map[string]string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[buildKey(name, tags)]
}

// GetTimings returns all recorded timing metrics
func (m *InMemoryMetricsCollector) GetTimings() []TimingMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TimingMetric(nil), m.timings...)
}

func buildKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += "," + k + ":" + tags[k]
	}
	return key
}

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

// StandardObservabilityHook reports engine events to a MetricsCollector.
type StandardObservabilityHook struct {
	metrics MetricsCollector
}

// NewStandardObservabilityHook creates a hook reporting to metrics. A nil
// collector discards everything.
func NewStandardObservabilityHook(metrics MetricsCollector) *StandardObservabilityHook {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &StandardObservabilityHook{metrics: metrics}
}

func (h *StandardObservabilityHook) OnProcessStart(operation string, metadata map[string]any) {
	tags := buildTags(metadata)
	tags["operation"] = operation
	h.metrics.IncrementCounter("xmlcodec.process.started", tags)
}

func (h *StandardObservabilityHook) OnProcessComplete(operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := buildTags(metadata)
	tags["operation"] = operation

	if err != nil {
		tags["status"] = "error"
		h.metrics.IncrementCounter("xmlcodec.process.failed", tags)
	} else {
		tags["status"] = "success"
		h.metrics.IncrementCounter("xmlcodec.process.completed", tags)
	}
	h.metrics.RecordTiming("xmlcodec.process.duration", duration, tags)
}

func (h *StandardObservabilityHook) OnError(operation string, err error, metadata map[string]any) {
	tags := buildTags(metadata)
	tags["operation"] = operation
	tags["error_type"] = errorType(err)
	h.metrics.IncrementCounter("xmlcodec.errors", tags)
}

func (h *StandardObservabilityHook) OnSerializerBuilt(typeName string, members int) {
	h.metrics.SetGauge("xmlcodec.serializer.members", float64(members), map[string]string{"type": typeName})
}

func buildTags(metadata map[string]any) map[string]string {
	tags := make(map[string]string)
	for k, v := range metadata {
		if str, ok := v.(string); ok {
			tags[k] = str
		}
	}
	return tags
}

func errorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsSchemaError(err):
		return "schema"
	case IsDataError(err):
		return "data"
	case IsConfigurationError(err):
		return "configuration"
	default:
		return "general"
	}
}
