package models

// SearchQuery represents a similarity-search request.
type SearchQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

// Validate rejects blank queries and negative topK. A topK of zero is valid
// and yields an empty result list.
func (q *SearchQuery) Validate() error {
	if IsBlank(q.Query) {
		return NewInvalidArgument("query must not be empty or whitespace")
	}
	if q.TopK < 0 {
		return NewInvalidArgument("topK must not be negative")
	}
	return nil
}
