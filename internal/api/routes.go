package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/api/handlers"
	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/interfaces"
)

// MetricsRecorder is the observability sink the router reports to
type MetricsRecorder interface {
	handlers.ErrorRecorder
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// Options wires the router to its collaborators
type Options struct {
	Version     string
	Environment string
	Middleware  *MiddlewareConfig

	Service   *insights.Service
	Records   interfaces.RecordStore
	Artifacts interfaces.ArtifactStore

	// Dependencies are pinged by the readiness probe, keyed by name
	Dependencies map[string]interfaces.Storage

	// Metrics may be nil; MetricsHandler is mounted at /metrics when set
	Metrics        MetricsRecorder
	MetricsHandler http.Handler

	Logger *logrus.Logger
}

type Router struct {
	options         Options
	insightsHandler *handlers.InsightsHandler
	recordsHandler  *handlers.RecordsHandler
	modelsHandler   *handlers.ModelsHandler
	healthHandler   *handlers.HealthHandler
}

func NewRouter(options Options) *Router {
	if options.Logger == nil {
		options.Logger = logrus.New()
	}
	if options.Middleware == nil {
		options.Middleware = DefaultMiddlewareConfig()
	}

	// avoid a typed nil inside the ErrorRecorder interface
	var errorRecorder handlers.ErrorRecorder
	if options.Metrics != nil {
		errorRecorder = options.Metrics
	}

	health := handlers.NewHealthHandler(options.Version, options.Environment)
	for name, dep := range options.Dependencies {
		health.AddDependency(name, dep)
	}

	return &Router{
		options:         options,
		insightsHandler: handlers.NewInsightsHandler(options.Service, options.Logger, errorRecorder),
		recordsHandler:  handlers.NewRecordsHandler(options.Records, options.Logger, errorRecorder),
		modelsHandler:   handlers.NewModelsHandler(options.Artifacts, options.Logger, errorRecorder),
		healthHandler:   health,
	}
}

func (router *Router) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	ApplyMiddleware(r, router.options.Middleware, router.options.Logger, router.options.Metrics)

	if router.options.MetricsHandler != nil {
		r.Handle("/metrics", router.options.MetricsHandler).Methods("GET")
	}

	// Health endpoints
	health := r.PathPrefix("/health").Subrouter()
	health.HandleFunc("", router.healthHandler.GetHealth).Methods("GET")
	health.HandleFunc("/live", router.healthHandler.GetLiveness).Methods("GET")
	health.HandleFunc("/ready", router.healthHandler.GetReadiness).Methods("GET")
	r.HandleFunc("/version", router.healthHandler.GetVersion).Methods("GET")

	api := r.PathPrefix(constants.APIPrefix).Subrouter()

	// Per-user insight endpoints
	users := api.PathPrefix("/users/{user_id}").Subrouter()
	users.HandleFunc("/predict", router.insightsHandler.Predict).Methods("GET")
	users.HandleFunc("/anomalies/{metric}", router.insightsHandler.Anomalies).Methods("GET")
	users.HandleFunc("/recommendations", router.insightsHandler.Recommendations).Methods("GET")
	users.HandleFunc("/dashboard", router.insightsHandler.Dashboard).Methods("GET")
	users.HandleFunc("/summary", router.insightsHandler.Summary).Methods("GET")
	users.HandleFunc("/records", router.recordsHandler.ListRecords).Methods("GET")
	users.HandleFunc("/records", router.recordsHandler.AddRecords).Methods("POST")

	// Model artifact endpoints
	models := api.PathPrefix("/models").Subrouter()
	models.HandleFunc("", router.modelsHandler.ListModels).Methods("GET")
	models.HandleFunc("/{name}/{metric}", router.modelsHandler.GetModel).Methods("GET")

	return r
}

// Handler returns the routed API wrapped in the CORS policy when enabled
func (router *Router) Handler() http.Handler {
	r := router.SetupRoutes()
	if !router.options.Middleware.EnableCORS {
		return r
	}
	return CORSHandler(r, router.options.Middleware.AllowedOrigins)
}
