package ingestion

import (
	"context"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// Runner is the pipeline entry point the HTTP trigger drives.
type Runner interface {
	Run(ctx context.Context, mode v1.RunMode, raws []v1.RawRecord) (v1.RunReport, error)
	Repair(ctx context.Context) (v1.RunReport, error)
}

type Service struct {
	runner           Runner
	store            storage.HistoryStore
	maxBodySizeBytes int
}

func NewService(runner Runner, store storage.HistoryStore, maxBodySizeMB int) *Service {
	if runner == nil {
		panic("ingestion: runner must not be nil")
	}
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 16
	}
	return &Service{
		runner:           runner,
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the run trigger routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/runs", s.RunHandler)
	r.POST("/v1/runs/repair", s.RepairHandler)
	r.GET("/v1/runs", s.ListRunsHandler)
}
