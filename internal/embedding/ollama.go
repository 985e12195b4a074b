package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
)

// tagsTimeout bounds the advisory model-availability check; unlike embedding
// calls, listing models is a cheap request.
const tagsTimeout = 10 * time.Second

// OllamaProvider generates embeddings through an Ollama-compatible HTTP endpoint.
// The embed call carries its own long timeout because embedding generation is
// measurably slower than simple CRUD calls.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// embedRequest is the body for POST /api/embed.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the body returned by POST /api/embed.
type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// tagsResponse is the body returned by GET /api/tags.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaProvider creates a provider from config.
func NewOllamaProvider(cfg *config.ProviderConfig) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Embed converts text into a vector of fixed dimension. A transport failure or
// non-2xx status yields models.ErrProviderUnavailable; a successful response
// with zero vectors yields models.ErrEmptyResult.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrProviderUnavailable, resp.StatusCode, string(b))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrProviderUnavailable, err)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: model %s", models.ErrEmptyResult, p.model)
	}
	vec := out.Embeddings[0]
	if p.dimensions > 0 && len(vec) != p.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(vec), p.dimensions)
	}
	return vec, nil
}

// EnsureModelAvailable checks that the configured model is present on the
// provider. It is advisory: callers log a warning on failure and continue,
// since a missing model is detected at embed time anyway.
func (p *OllamaProvider) EnsureModelAvailable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, tagsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create tags request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("parse tags response: %w", err)
	}
	for _, m := range tags.Models {
		// "nomic-embed-text:latest" matches configured "nomic-embed-text".
		if m.Name == p.model || strings.SplitN(m.Name, ":", 2)[0] == p.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on provider", p.model)
}

// Dimensions returns the configured embedding dimension.
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}
