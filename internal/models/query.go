package models

import "fmt"

// Search modes.
const (
	ModeKeyword = "keyword"
	ModeVector  = "vector"
	ModeHybrid  = "hybrid"
)

// SearchQuery is a search request. Zero weights fall back to the
// configured defaults in the engine.
type SearchQuery struct {
	Query         string  `json:"query"`
	Mode          string  `json:"mode,omitempty"`
	Domain        string  `json:"domain,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	KeywordWeight float64 `json:"keyword_weight,omitempty"`
	VectorWeight  float64 `json:"vector_weight,omitempty"`
}

// Validate normalizes the query in place and rejects empty or malformed
// requests.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Mode == "" {
		q.Mode = ModeHybrid
	}
	switch q.Mode {
	case ModeKeyword, ModeVector, ModeHybrid:
	default:
		return fmt.Errorf("unknown search mode: %s", q.Mode)
	}
	if q.TopK <= 0 {
		q.TopK = 10
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	return nil
}
