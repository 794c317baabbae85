package xmlcodec

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMetricsCollector(t *testing.T) {
	collector := NewInMemoryMetricsCollector()

	collector.IncrementCounter("test.counter", map[string]string{"tag1": "value1"})
	collector.IncrementCounterBy("test.counter", 5, map[string]string{"tag1": "value1"})

	assert.Equal(t, int64(6), collector.GetCounterValue("test.counter", map[string]string{"tag1": "value1"}))
	assert.Equal(t, int64(0), collector.GetCounterValue("test.counter", map[string]string{"tag1": "value2"}))

	collector.SetGauge("test.gauge", 42.5, map[string]string{"tag1": "value1"})
	assert.Equal(t, 42.5, collector.GetGaugeValue("test.gauge", map[string]string{"tag1": "value1"}))

	duration := 100 * time.Millisecond
	collector.RecordTiming("test.timing", duration, map[string]string{"operation": "test"})

	timings := collector.GetTimings()
	require.Len(t, timings, 1)
	assert.Equal(t, "test.timing", timings[0].Name)
	assert.Equal(t, duration, timings[0].Duration)
	assert.Equal(t, "test", timings[0].Tags["operation"])
	assert.NoError(t, collector.Flush())
}

func TestInMemoryMetricsCollector_TagOrderDoesNotMatter(t *testing.T) {
	collector := NewInMemoryMetricsCollector()

	collector.IncrementCounter("c", map[string]string{"a": "1", "b": "2"})
	collector.IncrementCounter("c", map[string]string{"b": "2", "a": "1"})

	assert.Equal(t, int64(2), collector.GetCounterValue("c", map[string]string{"a": "1", "b": "2"}))
}

func TestStandardObservabilityHook(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	hook := NewStandardObservabilityHook(collector)

	metadata := map[string]any{"tag": "quiz", "ignored": 3}
	want := map[string]string{"operation": "deserialize", "tag": "quiz"}

	hook.OnProcessStart("deserialize", metadata)
	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.process.started", want))

	hook.OnProcessComplete("deserialize", time.Millisecond, nil, metadata)
	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.process.completed",
		map[string]string{"operation": "deserialize", "tag": "quiz", "status": "success"}))

	err := fmt.Errorf("reading: %w", ErrNodeNotFound)
	hook.OnProcessComplete("deserialize", time.Millisecond, err, metadata)
	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.process.failed",
		map[string]string{"operation": "deserialize", "tag": "quiz", "status": "error"}))
	assert.Len(t, collector.GetTimings(), 2)

	hook.OnError("deserialize", err, metadata)
	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.errors",
		map[string]string{"operation": "deserialize", "tag": "quiz", "error_type": "data"}))

	hook.OnSerializerBuilt("main.card", 5)
	assert.Equal(t, 5.0, collector.GetGaugeValue("xmlcodec.serializer.members", map[string]string{"type": "main.card"}))
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "none", errorType(nil))
	assert.Equal(t, "schema", errorType(ErrUnsupportedType))
	assert.Equal(t, "data", errorType(ErrIndexOutOfRange))
	assert.Equal(t, "configuration", errorType(ErrInvalidConfiguration))
	assert.Equal(t, "general", errorType(errors.New("boom")))
}

func TestEngineReportsToHook(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	e, _ := newCardEngine(t, WithObservability(NewStandardObservabilityHook(collector)))

	el, err := Serialize(e, card{Prompt: "p"})
	require.NoError(t, err)
	_, err = Deserialize[card](e, etree.NewElement("card"))
	require.Error(t, err)

	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.process.completed",
		map[string]string{"operation": "serialize", "tag": el.Tag, "status": "success"}))
	assert.Equal(t, int64(1), collector.GetCounterValue("xmlcodec.errors",
		map[string]string{"operation": "deserialize", "tag": "card", "error_type": "data"}))
	assert.Equal(t, float64(5), collector.GetGaugeValue("xmlcodec.serializer.members", map[string]string{"type": "xmlcodec.card"}))
}

func TestNoOpMonitoring(t *testing.T) {
	collector := &NoOpMetricsCollector{}
	collector.IncrementCounter("test", nil)
	collector.IncrementCounterBy("test", 5, nil)
	collector.SetGauge("test", 42.0, nil)
	collector.RecordTiming("test", time.Second, nil)
	assert.NoError(t, collector.Flush())

	hook := &NoOpObservabilityHook{}
	hook.OnProcessStart("test", nil)
	hook.OnProcessComplete("test", time.Second, nil, nil)
	hook.OnError("test", errors.New("test"), nil)
	hook.OnSerializerBuilt("test", 0)
}
