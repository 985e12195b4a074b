package models

// SearchResult is a single similarity-search hit: a projection of the matched
// document plus the index-reported similarity score (higher = more similar).
// Results are never persisted; they are constructed per query.
type SearchResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
