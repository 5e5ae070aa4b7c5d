package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	httperr "github.com/aevon-lab/review-history/internal/core/errors"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/aevon-lab/review-history/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgRunFailed      = "Pipeline run failed"
	msgRunInProgress  = "A pipeline run is already in progress"
	msgStorageDown    = "History storage is unavailable"
	msgListRunsFailed = "Failed to list runs"

	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

// RunRequest is the POST /v1/runs body.
type RunRequest struct {
	Mode    string         `json:"mode"`
	Records []v1.RawRecord `json:"records"`
}

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// RunHandler runs the pipeline over the posted records and returns the run report.
func (s *Service) RunHandler(c *gin.Context) {
	req, payloadSize, ierr := s.parseRunRequest(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	mode, err := v1.ParseRunMode(req.Mode)
	if err != nil {
		writeError(c, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRunModeError,
			message:    err.Error(),
		})
		return
	}

	slog.Info("[Ingestion] Run requested",
		"mode", mode,
		"records", len(req.Records),
		"payload_size", payloadSize)

	report, err := s.runner.Run(c.Request.Context(), mode, req.Records)
	if err != nil {
		writeError(c, runError(err, report))
		return
	}

	c.JSON(http.StatusAccepted, report)
}

// RepairHandler runs the expire phase alone.
func (s *Service) RepairHandler(c *gin.Context) {
	report, err := s.runner.Repair(c.Request.Context())
	if err != nil {
		writeError(c, runError(err, report))
		return
	}
	c.JSON(http.StatusAccepted, report)
}

// ListRunsHandler returns the most recent run reports, newest first.
func (s *Service) ListRunsHandler(c *gin.Context) {
	limit, ierr := parseLimit(c.Query("limit"))
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	runs, err := s.store.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		slog.Error("[Ingestion] Failed to list runs", "error", err)
		writeError(c, storeError(err, msgListRunsFailed))
		return
	}
	if runs == nil {
		runs = []v1.RunReport{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// parseRunRequest reads the raw request body and binds it into a RunRequest.
// Returns the parsed request and the raw payload size (used for structured logging upstream).
func (s *Service) parseRunRequest(c *gin.Context) (*RunRequest, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	return &req, len(bodyBytes), nil
}

// runError maps pipeline failures to HTTP errors. The partial report is
// attached when the run got far enough to have an id.
func runError(err error, report v1.RunReport) *ingestionError {
	var details interface{}
	if report.RunID != uuid.Nil {
		details = report
	}

	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpRunInProgressError,
			message:    msgRunInProgress,
		}
	case errors.Is(err, v1.ErrInvalidRunMode):
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRunModeError,
			message:    err.Error(),
			details:    details,
		}
	case errors.Is(err, storage.ErrStorageUnavailable):
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpStorageUnavailableError,
			message:    err.Error(),
			details:    details,
		}
	default:
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgRunFailed + ": " + err.Error(),
			details:    details,
		}
	}
}

func storeError(err error, msg string) *ingestionError {
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpStorageUnavailableError,
			message:    msgStorageDown,
		}
	}
	return &ingestionError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msg,
	}
}

func parseLimit(raw string) (int, *ingestionError) {
	if raw == "" {
		return defaultRunsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxRunsLimit {
		return 0, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidQueryError,
			message:    "limit must be an integer between 1 and " + strconv.Itoa(maxRunsLimit),
		}
	}
	return limit, nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
