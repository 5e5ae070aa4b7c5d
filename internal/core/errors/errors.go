package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidJsonError        = "invalid_json"
	HttpInvalidRunModeError     = "invalid_run_mode"
	HttpStorageUnavailableError = "storage_unavailable"
	HttpHistoryNotFoundError    = "history_not_found"
	HttpRunInProgressError      = "run_in_progress"
	HttpInvalidQueryError       = "invalid_query"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
