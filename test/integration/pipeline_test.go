// Package integration exercises the full create/search/delete pipeline with
// real wiring (bolt index, embedding store, both services).
package integration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/index"
	"github.com/hyperjump/kioku/internal/ingest"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/store"
)

// cannedEmbedder maps known texts to fixed vectors so relevance between
// documents and queries is controlled by the test.
type cannedEmbedder struct {
	vectors map[string][]float32
}

func (c *cannedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, ok := c.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no canned vector for %q", text)
	}
	return v, nil
}

func (c *cannedEmbedder) Dimensions() int { return 4 }

func newPipeline(t *testing.T, embedder *cannedEmbedder) (*ingest.Service, *search.Service, *store.EmbeddingStore) {
	t.Helper()
	idx, err := index.NewBoltIndex(filepath.Join(t.TempDir(), "embeddings.db"), 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	st := store.NewEmbeddingStore(idx, 100, zap.NewNop())
	if err := st.InitializeIndex(context.Background()); err != nil {
		t.Fatal(err)
	}
	return ingest.NewService(embedder, st, zap.NewNop()),
		search.NewService(embedder, st, zap.NewNop()),
		st
}

func TestPipeline_RelevanceOrdering(t *testing.T) {
	const (
		textML      = "Machine learning is a subset of artificial intelligence"
		textDL      = "Deep learning uses neural networks"
		textWeather = "The weather is nice today"
		query       = "What is artificial intelligence?"
	)
	// The ML text is closest to the query, the DL text related, the
	// weather text orthogonal.
	embedder := &cannedEmbedder{vectors: map[string][]float32{
		textML:      {0.95, 0.3, 0, 0},
		textDL:      {0.7, 0.7, 0, 0},
		textWeather: {0, 0, 1, 0},
		query:       {1, 0.1, 0, 0},
	}}
	ingestion, searcher, _ := newPipeline(t, embedder)
	ctx := context.Background()

	for _, text := range []string{textML, textDL, textWeather} {
		if _, err := ingestion.Create(ctx, &models.EmbedRequest{Text: text}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := searcher.Search(ctx, &models.SearchQuery{Query: query, TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results: got %d, want exactly 2", len(results))
	}
	for _, r := range results {
		if r.Text == textWeather {
			t.Errorf("the weather document must not rank in the top 2")
		}
	}
	if results[0].Text != textML {
		t.Errorf("most related document should rank first: got %q", results[0].Text)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores should be strictly descending: %f, %f", results[0].Score, results[1].Score)
	}
}

func TestPipeline_CreateGetDeleteLifecycle(t *testing.T) {
	const text = "a document that lives and dies"
	embedder := &cannedEmbedder{vectors: map[string][]float32{
		text: {1, 0, 0, 0},
	}}
	ingestion, _, st := newPipeline(t, embedder)
	ctx := context.Background()

	meta := map[string]string{"origin": "integration", "n": "1"}
	doc, err := ingestion.Create(ctx, &models.EmbedRequest{Text: text, Metadata: meta})
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Vector) != 4 {
		t.Errorf("vector length: got %d, want 4", len(doc.Vector))
	}

	got, err := st.Get(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != text {
		t.Errorf("text round-trip: got %q", got.Text)
	}
	if got.Metadata["origin"] != "integration" || got.Metadata["n"] != "1" {
		t.Errorf("metadata round-trip: got %v", got.Metadata)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}

	found, err := ingestion.Delete(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Error("delete should find the document")
	}
	if _, err := st.Get(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestPipeline_DeleteAllThenSearch(t *testing.T) {
	embedder := &cannedEmbedder{vectors: map[string][]float32{
		"first":  {1, 0, 0, 0},
		"second": {0, 1, 0, 0},
		"query":  {1, 0, 0, 0},
	}}
	ingestion, searcher, _ := newPipeline(t, embedder)
	ctx := context.Background()

	for _, text := range []string{"first", "second"} {
		if _, err := ingestion.Create(ctx, &models.EmbedRequest{Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	count, err := ingestion.DeleteAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("deleted: got %d, want 2", count)
	}

	results, err := searcher.Search(ctx, &models.SearchQuery{Query: "query", TopK: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("search after delete-all: got %d results, want 0", len(results))
	}
}
