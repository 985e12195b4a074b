package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, dims int) (*OllamaProvider, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	p := NewOllamaProvider(&config.ProviderConfig{
		BaseURL:        ts.URL,
		Model:          "nomic-embed-text",
		Dimensions:     dims,
		TimeoutSeconds: 5,
	})
	return p, ts
}

func TestOllamaEmbed(t *testing.T) {
	var gotReq embedRequest
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(embedResponse{
			Model:      "nomic-embed-text",
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}, 3)

	vec, err := p.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length: got %d, want 3", len(vec))
	}
	if gotReq.Model != "nomic-embed-text" || gotReq.Input != "hello world" {
		t.Errorf("request body: got %+v", gotReq)
	}
}

func TestOllamaEmbed_ProviderError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}, 3)

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrProviderUnavailable) {
		t.Errorf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestOllamaEmbed_Unreachable(t *testing.T) {
	p := NewOllamaProvider(&config.ProviderConfig{
		BaseURL:        "http://127.0.0.1:1",
		Model:          "nomic-embed-text",
		Dimensions:     3,
		TimeoutSeconds: 1,
	})
	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrProviderUnavailable) {
		t.Errorf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestOllamaEmbed_EmptyResult(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Model: "nomic-embed-text"})
	}, 3)

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrEmptyResult) {
		t.Errorf("got %v, want ErrEmptyResult", err)
	}
}

func TestOllamaEmbed_DimensionMismatch(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1, 0.2}},
		})
	}, 3)

	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestEnsureModelAvailable(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"},{"name":"llama3.2:latest"}]}`))
	}, 3)

	if err := p.EnsureModelAvailable(context.Background()); err != nil {
		t.Errorf("model with tag suffix should match: %v", err)
	}
}

func TestEnsureModelAvailable_Missing(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}, 3)

	if err := p.EnsureModelAvailable(context.Background()); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(8)
	a, err := e.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "same text")
	c, _ := e.Embed(context.Background(), "different text")
	if len(a) != 8 {
		t.Errorf("dimensions: got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should produce the same embedding")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should produce different embeddings")
	}
}
