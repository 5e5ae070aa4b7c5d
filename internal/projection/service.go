package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/identity"
	"github.com/aevon-lab/review-history/internal/core/storage"
)

const (
	defaultEntityLimit = 100
	maxEntityLimit     = 1000
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid history query")

	// ErrHistoryNotFound marks a key with no rows, or no row valid at the requested time.
	ErrHistoryNotFound = errors.New("history not found")
)

// Service implements the read side over the history table.
type Service struct {
	store storage.HistoryStore
}

// NewService creates a new projection service.
func NewService(store storage.HistoryStore) *Service {
	return &Service{store: store}
}

// History returns every version of a business key, oldest first.
func (s *Service) History(ctx context.Context, businessKey string) (*HistoryResponse, error) {
	key, err := normalizeKey(businessKey)
	if err != nil {
		return nil, err
	}

	versions, err := s.store.History(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrHistoryNotFound, key)
	}

	resp := &HistoryResponse{BusinessKey: key, Versions: versions}
	for _, v := range versions {
		if v.IsCurrent && v.Version > resp.CurrentVersion {
			resp.CurrentVersion = v.Version
		}
	}
	return resp, nil
}

// AsOf returns the version whose validity window [effective_from, effective_to)
// contains at.
func (s *Service) AsOf(ctx context.Context, businessKey string, at time.Time) (*AsOfResponse, error) {
	hist, err := s.History(ctx, businessKey)
	if err != nil {
		return nil, err
	}

	// Later versions win when windows overlap, which only happens while an
	// expire phase is pending.
	for i := len(hist.Versions) - 1; i >= 0; i-- {
		v := hist.Versions[i]
		if at.Before(v.EffectiveFrom) {
			continue
		}
		if v.EffectiveTo != nil && !at.Before(*v.EffectiveTo) {
			continue
		}
		return &AsOfResponse{BusinessKey: hist.BusinessKey, AsOf: at, Entry: v}, nil
	}
	return nil, fmt.Errorf("%w: %s has no version valid at %s", ErrHistoryNotFound, hist.BusinessKey, at.Format(time.RFC3339))
}

// CurrentByEntity returns current rows for an entity reference, newest first.
// limit <= 0 uses the default.
func (s *Service) CurrentByEntity(ctx context.Context, entityRef string, limit int) (*EntityCurrentResponse, error) {
	ref := strings.ToUpper(strings.TrimSpace(entityRef))
	if ref == "" {
		return nil, invalidQueryf("entity_ref is required")
	}
	if limit <= 0 {
		limit = defaultEntityLimit
	}
	if limit > maxEntityLimit {
		return nil, invalidQueryf("limit must be <= %d", maxEntityLimit)
	}

	entries, err := s.store.CurrentByEntity(ctx, ref, limit)
	if err != nil {
		return nil, fmt.Errorf("load current rows: %w", err)
	}
	if entries == nil {
		entries = []v1.HistoryEntry{}
	}
	return &EntityCurrentResponse{EntityRef: ref, Count: len(entries), Entries: entries}, nil
}

func normalizeKey(raw string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if len(key) != identity.KeyLength {
		return "", invalidQueryf("business_key must be %d hex characters", identity.KeyLength)
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", invalidQueryf("business_key must be hex encoded")
		}
	}
	return key, nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
