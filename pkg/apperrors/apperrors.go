// Package apperrors defines the stable error envelope returned to clients.
// Every error response carries a numeric error code string, a human message
// and a structured details map.
package apperrors

import (
	"fmt"
	"net/http"
)

// Error code constants. The numeric ranges group codes by area:
// 1xxx auth, 2xxx team, 3xxx checkin, 9xxx general.
const (
	CodeInvalidCredentials = "1001"
	CodeUserExists         = "1002"
	CodeInvalidToken       = "1003"
	CodeTokenExpired       = "1004"

	CodeTeamNotFound      = "2001"
	CodeNotTeamMember     = "2002"
	CodeAlreadyTeamMember = "2003"
	CodeTeamFull          = "2004"

	CodeInvalidCheckin   = "3001"
	CodeDuplicateCheckin = "3002"
	CodeCheckinNotFound  = "3003"

	CodeValidationError = "9001"
	CodeDatabaseError   = "9002"
	CodeUnknownError    = "9999"
)

// APIError is the typed error surfaced by controllers. It renders to the
// wire as {"error_code": ..., "message": ..., "details": {...}}.
type APIError struct {
	StatusCode int                    `json:"-"`
	ErrorCode  string                 `json:"error_code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details"`
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.ErrorCode, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.ErrorCode, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error without leaking it to the client.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

func newAPIError(status int, code, message string, details map[string]interface{}) *APIError {
	if details == nil {
		details = map[string]interface{}{}
	}
	return &APIError{
		StatusCode: status,
		ErrorCode:  code,
		Message:    message,
		Details:    details,
	}
}

// --- Auth errors ---

func InvalidCredentials(message string) *APIError {
	if message == "" {
		message = "Could not validate credentials"
	}
	return newAPIError(http.StatusUnauthorized, CodeInvalidCredentials, message, nil)
}

func UserExists() *APIError {
	return newAPIError(http.StatusConflict, CodeUserExists, "Username already exists", nil)
}

func InvalidToken(message string) *APIError {
	if message == "" {
		message = "Invalid authentication token"
	}
	return newAPIError(http.StatusUnauthorized, CodeInvalidToken, message, nil)
}

// --- Team errors ---

func TeamNotFound(teamID uint) *APIError {
	return newAPIError(http.StatusNotFound, CodeTeamNotFound,
		fmt.Sprintf("Team with id %d not found", teamID),
		map[string]interface{}{"team_id": teamID})
}

func NotTeamMember(userID, teamID uint) *APIError {
	return newAPIError(http.StatusForbidden, CodeNotTeamMember,
		"User is not a member of this team",
		map[string]interface{}{"user_id": userID, "team_id": teamID})
}

func AlreadyTeamMember(userID, teamID uint) *APIError {
	return newAPIError(http.StatusConflict, CodeAlreadyTeamMember,
		"User is already a member of this team",
		map[string]interface{}{"user_id": userID, "team_id": teamID})
}

// --- Checkin errors ---

func InvalidCheckin(reason string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeInvalidCheckin,
		fmt.Sprintf("Invalid checkin: %s", reason), nil)
}

// --- General errors ---

func ValidationFailed(details map[string]interface{}) *APIError {
	return newAPIError(http.StatusBadRequest, CodeValidationError, "Request validation failed", details)
}

// DatabaseOperationFailed wraps a failed repository write with the operation
// name; the transaction has already been rolled back by the caller.
func DatabaseOperationFailed(operation string, err error) *APIError {
	return newAPIError(http.StatusInternalServerError, CodeDatabaseError,
		fmt.Sprintf("Database operation failed: %s", operation),
		map[string]interface{}{"operation": operation}).WithCause(err)
}

// Unknown is the catch-all for unexpected failures. Internal detail is only
// attached when debug is true.
func Unknown(err error, debug bool) *APIError {
	details := map[string]interface{}{}
	if debug && err != nil {
		details["error"] = err.Error()
	}
	return newAPIError(http.StatusInternalServerError, CodeUnknownError,
		"An unexpected error occurred", details).WithCause(err)
}
