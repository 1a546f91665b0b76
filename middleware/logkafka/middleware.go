// Package logkafka writes one structured entry per HTTP request to Kafka for
// indexing, echoing it to the service logger.
package logkafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const TraceHeader = "X-Trace-ID"

type LogEntry struct {
	Level     string            `json:"level"`
	Module    string            `json:"module"`
	Message   string            `json:"message"`
	TraceID   string            `json:"trace_id"`
	Env       string            `json:"env"`
	Timestamp string            `json:"timestamp"`
	Extra     map[string]string `json:"extra"`
}

type Logger struct {
	sink   Sink
	env    string
	logger *slog.Logger
	now    func() time.Time
}

func New(sink Sink, env string, logger *slog.Logger) *Logger {
	if sink == nil {
		sink = Discard
	}
	return &Logger{sink: sink, env: env, logger: logger, now: time.Now}
}

type annotations struct {
	mu     sync.Mutex
	fields map[string]string
}

type annotationsKey struct{}

// Annotate attaches a field to the current request's log entry. Inner
// handlers use it for values the outer middleware can not see, such as the
// authenticated principal.
func Annotate(ctx context.Context, key, value string) {
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	a.fields[key] = value
	a.mu.Unlock()
}

type traceKey struct{}

// TraceID returns the id assigned to the request, if any.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (l *Logger) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := l.now()

		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		w.Header().Set(TraceHeader, traceID)

		ann := &annotations{fields: map[string]string{}}
		ctx := context.WithValue(r.Context(), annotationsKey{}, ann)
		ctx = context.WithValue(ctx, traceKey{}, traceID)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r.WithContext(ctx))
		duration := l.now().Sub(start)

		extra := map[string]string{
			"principal":   "anonymous",
			"ip":          clientIP(r),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      strconv.Itoa(rw.statusCode),
			"duration_ms": strconv.FormatInt(duration.Milliseconds(), 10),
			"user_agent":  r.UserAgent(),
		}
		ann.mu.Lock()
		for k, v := range ann.fields {
			extra[k] = v
		}
		ann.mu.Unlock()

		level := "info"
		switch {
		case rw.statusCode >= 500:
			level = "error"
		case rw.statusCode >= 400:
			level = "warn"
		}
		l.write(r.Context(), LogEntry{
			Level:     level,
			Module:    "http",
			Message:   "request completed",
			TraceID:   traceID,
			Env:       l.env,
			Timestamp: start.UTC().Format(time.RFC3339),
			Extra:     extra,
		})
	})
}

func (l *Logger) write(ctx context.Context, entry LogEntry) {
	l.logger.InfoContext(ctx, entry.Message,
		"trace_id", entry.TraceID, "method", entry.Extra["method"], "path", entry.Extra["path"],
		"status", entry.Extra["status"], "duration_ms", entry.Extra["duration_ms"], "principal", entry.Extra["principal"])

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	msg := kafka.Message{Key: []byte(entry.TraceID), Value: b, Time: l.now()}
	if err := l.sink.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		l.logger.WarnContext(ctx, "request log not shipped", "trace_id", entry.TraceID, "error", err)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
