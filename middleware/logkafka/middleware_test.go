package logkafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct{ msgs []kafka.Message }

func (s *memSink) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *memSink) Close() error { return nil }

func TestLoggingMiddlewareShipsEntry(t *testing.T) {
	sink := &memSink{}
	l := New(sink, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := l.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Annotate(r.Context(), "principal", "customer:abc")
		assert.Equal(t, "trace-1", TraceID(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/customer/orders", nil)
	req.Header.Set(TraceHeader, "trace-1")
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-1", rec.Header().Get(TraceHeader))
	require.Len(t, sink.msgs, 1)
	var entry LogEntry
	require.NoError(t, json.Unmarshal(sink.msgs[0].Value, &entry))
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, "test", entry.Env)
	assert.Equal(t, "404", entry.Extra["status"])
	assert.Equal(t, "10.0.0.7", entry.Extra["ip"])
	assert.Equal(t, "customer:abc", entry.Extra["principal"])
	assert.Equal(t, "/customer/orders", entry.Extra["path"])
}

func TestLoggingMiddlewareAssignsTraceID(t *testing.T) {
	sink := &memSink{}
	h := New(sink, "test", slog.New(slog.NewTextHandler(io.Discard, nil))).
		LoggingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Len(t, rec.Header().Get(TraceHeader), 36)
	var entry LogEntry
	require.NoError(t, json.Unmarshal(sink.msgs[0].Value, &entry))
	assert.Equal(t, "anonymous", entry.Extra["principal"])
	assert.Equal(t, "info", entry.Level)
}
