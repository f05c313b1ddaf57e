package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/internal/insights"
	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// ErrorRecorder counts failed requests
type ErrorRecorder interface {
	RecordError(component, errorType string)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID returns ctx carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// responder writes Outcome envelopes and reports failures
type responder struct {
	logger   *logrus.Logger
	recorder ErrorRecorder
}

func newResponder(logger *logrus.Logger, recorder ErrorRecorder) responder {
	if logger == nil {
		logger = logrus.New()
	}
	return responder{logger: logger, recorder: recorder}
}

func (rs responder) respond(w http.ResponseWriter, r *http.Request, operation string, status int, data interface{}, err error) {
	if err != nil {
		status = errors.HTTPStatus(err)
		rs.reportError(r, operation, status, err)
	}
	writeJSON(w, status, insights.ToOutcome(data, err))
}

func (rs responder) reportError(r *http.Request, operation string, status int, err error) {
	errorType := string(errors.ErrorTypeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		errorType = string(appErr.Type)
	}

	entry := rs.logger.WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"operation":  operation,
		"status":     status,
		"error_type": errorType,
	}).WithError(err)

	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	if rs.recorder != nil {
		rs.recorder.RecordError(operation, errorType)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// intParam reads a positive integer query parameter, returning def when absent
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(errors.CodeInvalidInput, name+" must be an integer").WithDetails(raw)
	}
	return value, nil
}

// dateParam reads an optional date query parameter, zero when absent
func dateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.NewDataError(errors.CodeInvalidDate, name+" is not a valid date").WithDetails(err.Error())
	}
	return t, nil
}
