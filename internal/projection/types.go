package projection

import (
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// HistoryResponse is the full version history of one business key.
type HistoryResponse struct {
	BusinessKey    string            `json:"business_key"`
	CurrentVersion int               `json:"current_version"`
	Versions       []v1.HistoryEntry `json:"versions"`
}

// AsOfResponse is the version of a business key valid at a point in time.
type AsOfResponse struct {
	BusinessKey string          `json:"business_key"`
	AsOf        time.Time       `json:"as_of"`
	Entry       v1.HistoryEntry `json:"entry"`
}

// EntityCurrentResponse lists the current rows for an entity reference.
type EntityCurrentResponse struct {
	EntityRef string            `json:"entity_ref"`
	Count     int               `json:"count"`
	Entries   []v1.HistoryEntry `json:"entries"`
}
