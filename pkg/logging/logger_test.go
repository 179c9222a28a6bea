package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	return New(&Config{
		Level:       level,
		ServiceName: "quote-service",
		Environment: "test",
		Version:     "1.0.0",
		Output:      buf,
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_BaseAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.Info("hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "quote-service", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "1.0.0", entry["version"])
	_, err := time.Parse(time.RFC3339Nano, entry["time"].(string))
	assert.NoError(t, err)
}

func TestLogger_WithContextCarriesCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithClientID(ctx, "client-9")
	logger.WithContext(ctx).Info("scoped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "client-9", entry["clientId"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestLogger_QuoteComparison(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.QuoteComparison(context.Background(), 4, true, 5000, 12*time.Millisecond)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Quote comparison completed", entry["msg"])
	assert.Equal(t, float64(4), entry["quantityCount"])
	assert.Equal(t, true, entry["cached"])
	assert.Equal(t, float64(5000), entry["bestQuantity"])
}

func TestLogger_CacheEventBelowLevelIsDropped(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, LevelInfo)

	logger.CacheEvent(context.Background(), "hit", "abc")

	assert.Zero(t, buf.Len())
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := newBufferLogger(&bytes.Buffer{}, LevelInfo)
	assert.Same(t, logger, logger.WithError(nil))
}
