package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// maxRecordsBody caps the size of an ingest request
const maxRecordsBody = 4 << 20

// RecordsPage is the body of a record listing
type RecordsPage struct {
	UserID  string                `json:"user_id"`
	Count   int                   `json:"count"`
	Records []models.MetricRecord `json:"records"`
}

// AddRecordsRequest is the body accepted by AddRecords
type AddRecordsRequest struct {
	Records []models.MetricRecord `json:"records"`
}

// RecordsHandler reads and ingests raw metric records
type RecordsHandler struct {
	store interfaces.RecordStore
	responder
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(store interfaces.RecordStore, logger *logrus.Logger, recorder ErrorRecorder) *RecordsHandler {
	return &RecordsHandler{
		store:     store,
		responder: newResponder(logger, recorder),
	}
}

// ListRecords handles GET /users/{user_id}/records?from=&to=&limit=
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	page, err := h.list(r, userID)
	h.respond(w, r, "list_records", http.StatusOK, page, err)
}

func (h *RecordsHandler) list(r *http.Request, userID string) (*RecordsPage, error) {
	from, err := dateParam(r, "from")
	if err != nil {
		return nil, err
	}
	to, err := dateParam(r, "to")
	if err != nil {
		return nil, err
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		return nil, err
	}

	var tr *models.TimeRange
	if !from.IsZero() || !to.IsZero() {
		tr = &models.TimeRange{Start: from, End: to}
		if !tr.Valid() {
			return nil, errors.NewValidationError(errors.CodeInvalidTimeRange, errors.ErrInvalidTimeRange.Error())
		}
	}

	records, err := h.store.ListRecords(r.Context(), userID, tr, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.MetricRecord{}
	}

	return &RecordsPage{UserID: userID, Count: len(records), Records: records}, nil
}

// AddRecords handles POST /users/{user_id}/records
func (h *RecordsHandler) AddRecords(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	count, err := h.add(w, r, userID)
	h.respond(w, r, "add_records", http.StatusCreated, map[string]int{"added": count}, err)
}

func (h *RecordsHandler) add(w http.ResponseWriter, r *http.Request, userID string) (int, error) {
	writer, ok := h.store.(interfaces.RecordWriter)
	if !ok {
		return 0, errors.NewValidationError(errors.CodeInvalidInput, "record store is read-only")
	}

	var req AddRecordsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordsBody)).Decode(&req); err != nil {
		return 0, errors.NewValidationError(errors.CodeInvalidInput, "invalid request body").WithDetails(err.Error())
	}
	if len(req.Records) == 0 {
		return 0, errors.NewValidationError(errors.CodeInvalidInput, "no records supplied")
	}

	for i := range req.Records {
		if _, err := req.Records[i].Timestamp(); err != nil {
			return 0, errors.NewDataError(errors.CodeInvalidDate, fmt.Sprintf("record %d has an unparseable date", i)).WithDetails(err.Error())
		}
		if !req.Records[i].HasAnyMetric() {
			return 0, errors.NewValidationError(errors.CodeInvalidInput, fmt.Sprintf("record %d has no readings", i))
		}
	}

	if err := writer.AddRecords(r.Context(), userID, req.Records); err != nil {
		return 0, err
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"user_id":    userID,
		"records":    len(req.Records),
	}).Info("Records added")

	return len(req.Records), nil
}
