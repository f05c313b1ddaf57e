package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/models"
)

// InsightsHandler exposes the insight use cases over HTTP
type InsightsHandler struct {
	service *insights.Service
	responder
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(service *insights.Service, logger *logrus.Logger, recorder ErrorRecorder) *InsightsHandler {
	return &InsightsHandler{
		service:   service,
		responder: newResponder(logger, recorder),
	}
}

// Predict handles GET /users/{user_id}/predict?days=N
func (h *InsightsHandler) Predict(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", constants.DefaultHorizonDays)
	if err != nil {
		h.respond(w, r, "predict", 0, nil, err)
		return
	}

	result, err := h.service.PredictWeight(r.Context(), mux.Vars(r)["user_id"], days)
	h.respond(w, r, "predict", http.StatusOK, result, err)
}

// Anomalies handles GET /users/{user_id}/anomalies/{metric}
func (h *InsightsHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := h.service.DetectAnomalies(r.Context(), vars["user_id"], models.Metric(vars["metric"]))
	h.respond(w, r, "anomalies", http.StatusOK, result, err)
}

// Recommendations handles GET /users/{user_id}/recommendations
func (h *InsightsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Recommendations(r.Context(), mux.Vars(r)["user_id"])
	h.respond(w, r, "recommendations", http.StatusOK, result, err)
}

// Dashboard handles GET /users/{user_id}/dashboard?days=N
func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", constants.DefaultDashboardDays)
	if err != nil {
		h.respond(w, r, "dashboard", 0, nil, err)
		return
	}

	result, err := h.service.Dashboard(r.Context(), mux.Vars(r)["user_id"], days)
	h.respond(w, r, "dashboard", http.StatusOK, result, err)
}

// Summary handles GET /users/{user_id}/summary?days=N
func (h *InsightsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", constants.DefaultSummaryDays)
	if err != nil {
		h.respond(w, r, "summary", 0, nil, err)
		return
	}

	result, err := h.service.Summary(r.Context(), mux.Vars(r)["user_id"], days)
	h.respond(w, r, "summary", http.StatusOK, result, err)
}
