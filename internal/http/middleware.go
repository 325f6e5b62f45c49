package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/service"
)

// RequestIDHeader carries the request correlation id. An inbound value is
// reused; otherwise one is generated.
const RequestIDHeader = "X-Request-ID"

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Identity returns a middleware that lifts the trusted identity header into
// the request context.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := userIDFromRequest(r); userID != "" {
				r = r.WithContext(SetUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Telemetry returns a middleware that records a trace for every request
// (subject to the sink's sampling) and an audit entry for every mutating
// request. Recording is fire-and-forget and never delays the response.
func Telemetry(sink *service.TelemetryService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sink == nil {
				next.ServeHTTP(w, r)
				return
			}

			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Milliseconds()
			userID := optional(UserIDFromContext(r.Context()))
			ip := optional(clientIP(r))
			agent := optional(r.UserAgent())

			sink.RecordRequest(r.Context(), model.RequestTrace{
				RequestID:  requestID,
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: ww.status,
				DurationMS: duration,
				UserID:     userID,
				IPAddress:  ip,
				UserAgent:  agent,
			})

			if mutating(r.Method) {
				sink.RecordAudit(r.Context(), model.AuditEntry{
					UserID:       userID,
					Action:       r.Method + " " + r.URL.Path,
					ResourceType: resourceType(r.URL.Path),
					StatusCode:   ww.status,
					IPAddress:    ip,
					UserAgent:    agent,
					Metadata:     map[string]string{"request_id": requestID},
				})
			}
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// resourceType derives a coarse resource label from the path, e.g.
// "/api/evaluations/123" -> "evaluations".
func resourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, p := range parts {
		if p != "" && p != "api" && p != "worker" {
			return p
		}
	}
	return "unknown"
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
