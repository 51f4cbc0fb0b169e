package models

// SearchResult is a single ranked hit.
type SearchResult struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Score         float64  `json:"score"`
	SemanticScore float64  `json:"semantic_score,omitempty"`
	KeywordScore  float64  `json:"keyword_score,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
	Rank          int      `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Mode      SearchMode      `json:"mode"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
