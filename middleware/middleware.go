package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"go_trial/foodapi/apperr"
	"go_trial/foodapi/telem"

	"github.com/gorilla/mux"
)

// ErrorWriter renders err as the API error envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

var (
	errNotJSON    = apperr.Validation("Content-Type header must be application/json")
	errEmptyBody  = apperr.Validation("Request body is empty")
	errBodyTooBig = apperr.Validation("Request body is too large")
)

const maxBodyBytes = 1 << 20

// RequireJSON rejects POST, PUT and PATCH requests whose body is empty or not
// JSON. The body is buffered and replaced so handlers can decode it again.
func RequireJSON(onError ErrorWriter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
			if err != nil {
				onError(w, r, apperr.Validation("Error reading request body"))
				return
			}
			if len(body) > maxBodyBytes {
				onError(w, r, errBodyTooBig)
				return
			}
			if len(bytes.TrimSpace(body)) == 0 {
				// bodiless actions (create-order from the stored cart, logout style DELETEs)
				if r.Method == http.MethodPut || r.Method == http.MethodPatch {
					onError(w, r, errEmptyBody)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(nil))
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				onError(w, r, errNotJSON)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics records request counts and latency labelled by route template, so
// ids in paths do not explode label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		telem.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
		telem.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Recover turns a panic into a 500 envelope and logs the stack.
func Recover(logger *slog.Logger, onError ErrorWriter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic serving request",
						"path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
					onError(w, r, apperr.New(apperr.KindInternal, ""))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
