package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/go-playground/validator/v10"
)

// apiError is the body of every error response and of dispatch warnings.
type apiError struct {
	Code       string `json:"err_code"`
	StatusCode int    `json:"err_status_code"`
	Type       string `json:"err_type"`
	Message    string `json:"err_message"`
	Handling   string `json:"err_handling"`
}

var (
	errInvalidEmail = apiError{"DM_REG_0001", http.StatusUnprocessableEntity, "validation_error",
		"Invalid email format", "Provide a valid email address"}
	errInvalidPassword = apiError{"DM_REG_0002", http.StatusUnprocessableEntity, "validation_error",
		"Password must be at least 8 characters and contain letters and digits", "Choose a stronger password"}
	errDuplicateEmail = apiError{"DM_REG_0003", http.StatusConflict, "conflict",
		"Email already registered", "Log in or use another email address"}
	errMalformedRequest = apiError{"DM_REG_0004", http.StatusBadRequest, "validation_error",
		"Malformed request body", "Send a JSON object with the documented fields"}
	errInvalidCode = apiError{"DM_REG_0005", http.StatusBadRequest, "activation_error",
		"Invalid or expired activation code", "Request a new activation code"}
	errMalformedCode = apiError{"DM_REG_0005", http.StatusUnprocessableEntity, "validation_error",
		"Activation code must be 4 digits", "Enter the 4-digit code from the email"}
	errAlreadyActive = apiError{"DM_REG_0007", http.StatusBadRequest, "state_error",
		"Account is already activated", "Log in with your credentials"}
	errStorage = apiError{"DM_REG_0008", http.StatusServiceUnavailable, "service_unavailable",
		"Service temporarily unavailable", "Retry later"}
	errDispatch = apiError{"DM_REG_0009", http.StatusOK, "dispatch_warning",
		"Activation email could not be sent", "Request a new activation code"}
	errInvalidCredentials = apiError{"DM_REG_0010", http.StatusUnauthorized, "authentication_error",
		"Invalid email or password", "Check your credentials"}
	errUnexpected = apiError{"DM_REG_0050", http.StatusInternalServerError, "internal_error",
		"Unexpected error", "Retry later or contact support"}
	errTooManyRequests = apiError{"DM_REG_0051", http.StatusTooManyRequests, "rate_limited",
		"Too many requests", "Slow down and retry later"}
)

// errorFor maps a service error onto its response.
func errorFor(err error) apiError {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return errDuplicateEmail
	case common.IsAuthFailure(err):
		return errInvalidCredentials
	case errors.Is(err, common.ErrAlreadyActive), errors.Is(err, common.ErrInvalidStateTransition):
		return errAlreadyActive
	case common.IsCodeFailure(err):
		return errInvalidCode
	case errors.Is(err, common.ErrStorageUnavailable):
		return errStorage
	default:
		return errUnexpected
	}
}

// validationErrorFor reports the first failing field.
func validationErrorFor(err error) apiError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errMalformedRequest
	}
	switch verrs[0].Field() {
	case "Email":
		return errInvalidEmail
	case "Password":
		return errInvalidPassword
	case "Code":
		return errMalformedCode
	default:
		return errMalformedRequest
	}
}
