package insights

import (
	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

// ToOutcome converts a use-case result into the response envelope
func ToOutcome(data interface{}, err error) models.Outcome {
	if err != nil {
		return FailedOutcome(err)
	}
	return models.Succeeded(data)
}

// FailedOutcome builds the {success:false, error} shape for err
func FailedOutcome(err error) models.Outcome {
	if appErr, ok := errors.AsAppError(err); ok {
		return models.Failed(appErr.Code, appErr.Message)
	}
	return models.Failed(errors.CodeInternalError, err.Error())
}
