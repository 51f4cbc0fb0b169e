package models

import "fmt"

// SearchMode selects which ranking a search request uses.
type SearchMode string

const (
	SearchModeHybrid   SearchMode = "hybrid"
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
)

// MaxSearchLimit caps the number of results a single request may ask for.
const MaxSearchLimit = 100

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string     `json:"query"`
	Limit int        `json:"limit,omitempty"`
	Mode  SearchMode `json:"mode,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is empty or the mode is unknown.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 5
	}
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
	switch q.Mode {
	case "":
		q.Mode = SearchModeHybrid
	case SearchModeHybrid, SearchModeSemantic, SearchModeKeyword:
	default:
		return fmt.Errorf("unknown search mode: %q", q.Mode)
	}
	return nil
}
