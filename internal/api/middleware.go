package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/api/handlers"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// MiddlewareConfig holds configuration for all middleware
type MiddlewareConfig struct {
	EnableLogging  bool     `mapstructure:"enable_logging" json:"enable_logging" yaml:"enable_logging"`
	EnableCORS     bool     `mapstructure:"enable_cors" json:"enable_cors" yaml:"enable_cors"`
	EnableSecurity bool     `mapstructure:"enable_security" json:"enable_security" yaml:"enable_security"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
}

// DefaultMiddlewareConfig returns default middleware configuration
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		EnableLogging:  true,
		EnableCORS:     true,
		EnableSecurity: true,
		AllowedOrigins: []string{constants.DefaultCORSOrigins},
	}
}

// HTTPRecorder observes completed requests
type HTTPRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// ApplyMiddleware applies all enabled middleware to the router
func ApplyMiddleware(r *mux.Router, config *MiddlewareConfig, logger *logrus.Logger, recorder MetricsRecorder) {
	var errorRecorder handlers.ErrorRecorder
	if recorder != nil {
		errorRecorder = recorder
	}

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(logger, errorRecorder))

	if config.EnableLogging {
		r.Use(LoggingMiddleware(logger))
	}

	if recorder != nil {
		r.Use(MetricsMiddleware(recorder))
	}

	if config.EnableSecurity {
		r.Use(SecurityMiddleware)
	}
}

// CORSHandler wraps h with the configured cross-origin policy
func CORSHandler(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{constants.HeaderContentType, constants.HeaderAuthorization, constants.HeaderRequestID},
		ExposedHeaders: []string{constants.HeaderRequestID},
		MaxAge:         3600,
	}).Handler(h)
}

// RequestIDMiddleware propagates X-Request-ID, minting one when absent
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(constants.HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(handlers.WithRequestID(r.Context(), id)))
	})
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			logger.WithFields(logrus.Fields{
				"request_id":  handlers.RequestID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapper.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"client_ip":   getClientIP(r),
			}).Info("HTTP request")
		})
	}
}

// MetricsMiddleware reports each request under its route template
func MetricsMiddleware(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			recorder.RecordHTTPRequest(r.Method, routeTemplate(r), strconv.Itoa(wrapper.statusCode), time.Since(start))
		})
	}
}

// RecoveryMiddleware turns a handler panic into a 500 envelope
func RecoveryMiddleware(logger *logrus.Logger, recorder handlers.ErrorRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithFields(logrus.Fields{
						"request_id": handlers.RequestID(r.Context()),
						"path":       r.URL.Path,
						"panic":      rec,
					}).Error("Recovered from handler panic")

					if recorder != nil {
						recorder.RecordError("http", string(errors.ErrorTypeInternal))
					}

					writeFailure(w, http.StatusInternalServerError, errors.CodeInternalError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set(constants.HeaderCacheControl, "no-store")

		next.ServeHTTP(w, r)
	})
}

// notFound answers unknown routes with the standard envelope
func notFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, errors.CodeNoData, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, errors.CodeInvalidInput, "method not allowed")
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.Failed(code, message))
}

// routeTemplate returns the matched route pattern, keeping label cardinality bounded
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	return rw.ResponseWriter.Write(b)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
