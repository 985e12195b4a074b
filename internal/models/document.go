// Package models defines core data structures for embedding documents, queries, and search results.
package models

import "time"

// EmbeddingDocument is the persisted unit: a text, its embedding vector, and
// optional caller-supplied metadata. Documents are immutable once indexed;
// changing text requires delete + recreate because the vector is derived data.
type EmbeddingDocument struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Vector    []float32         `json:"vector"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// EmbedRequest is the input for creating an embedding document.
type EmbedRequest struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate rejects empty or whitespace-only text.
func (r *EmbedRequest) Validate() error {
	if IsBlank(r.Text) {
		return NewInvalidArgument("text must not be empty or whitespace")
	}
	return nil
}

// EmbedResponse is returned after a successful create: the assigned id,
// the generated vector, and the original text.
type EmbedResponse struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Text      string    `json:"text"`
}

// DeleteAllResponse reports how many documents a bulk delete removed.
type DeleteAllResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
