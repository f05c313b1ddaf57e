package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/analytics"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// ModelsHandler serves the fitted model artifacts the service persisted
type ModelsHandler struct {
	store interfaces.ArtifactStore
	responder
}

// NewModelsHandler creates a new models handler. store may be nil.
func NewModelsHandler(store interfaces.ArtifactStore, logger *logrus.Logger, recorder ErrorRecorder) *ModelsHandler {
	return &ModelsHandler{
		store:     store,
		responder: newResponder(logger, recorder),
	}
}

// ListModels handles GET /models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	keys, err := h.listKeys(r)
	h.respond(w, r, "list_models", http.StatusOK, map[string][]string{"models": keys}, err)
}

func (h *ModelsHandler) listKeys(r *http.Request) ([]string, error) {
	if h.store == nil {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "no artifact store configured")
	}

	lister, ok := h.store.(interfaces.ArtifactLister)
	if !ok {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "artifact store cannot list models")
	}

	keys, err := lister.List(r.Context())
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetModel handles GET /models/{name}/{metric}
func (h *ModelsHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.load(r)
	h.respond(w, r, "get_model", http.StatusOK, artifact, err)
}

func (h *ModelsHandler) load(r *http.Request) (*models.ModelArtifact, error) {
	if h.store == nil {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "no artifact store configured")
	}

	vars := mux.Vars(r)
	key := analytics.ArtifactKey(vars["name"], models.Metric(vars["metric"]))

	data, err := h.store.Load(r.Context(), key)
	if err != nil {
		return nil, err
	}

	var artifact models.ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeData, errors.CodeReadFailed, "stored artifact is not valid JSON").
			WithContext("key", key)
	}
	return &artifact, nil
}
