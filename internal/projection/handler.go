package projection

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	httperr "github.com/aevon-lab/review-history/internal/core/errors"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/history/:business_key", s.HandleHistory)
	r.GET("/v1/entities/:entity_ref/current", s.HandleEntityCurrent)
}

// HandleHistory handles GET /v1/history/:business_key
// Query parameters: as_of (RFC3339, optional)
func (s *Service) HandleHistory(c *gin.Context) {
	key := c.Param("business_key")

	if raw := c.Query("as_of"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "Invalid query parameters",
				Details:   "as_of must be an RFC3339 timestamp",
			})
			return
		}
		resp, err := s.AsOf(c.Request.Context(), key, at)
		if err != nil {
			writeQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := s.History(c.Request.Context(), key)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleEntityCurrent handles GET /v1/entities/:entity_ref/current
// Query parameters: limit
func (s *Service) HandleEntityCurrent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "Invalid query parameters",
				Details:   "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	resp, err := s.CurrentByEntity(c.Request.Context(), c.Param("entity_ref"), limit)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid history query",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpHistoryNotFoundError,
			Message:   "No history for business key",
			Details:   err.Error(),
		})
	case errors.Is(err, storage.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStorageUnavailableError,
			Message:   "History storage is unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query history",
			Details:   err.Error(),
		})
	}
}
