package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/models"
)

// crudTimeout bounds index CRUD and search calls. Embedding generation has its
// own, much longer timeout in the provider.
const crudTimeout = 30 * time.Second

// ElasticIndex talks to an Elasticsearch-compatible store over HTTP. Every
// call uses an explicit request/response schema type; nothing is built from
// anonymous payloads.
type ElasticIndex struct {
	baseURL    string
	name       string
	dimensions int
	client     *http.Client
}

// esDocument is the _source shape stored in the index.
type esDocument struct {
	Text      string            `json:"text"`
	Vector    []float32         `json:"vector"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// createIndexRequest is the body for PUT /{index}.
type createIndexRequest struct {
	Mappings mappings `json:"mappings"`
}

type mappings struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Text      fieldMapping       `json:"text"`
	Vector    denseVectorMapping `json:"vector"`
	Metadata  fieldMapping       `json:"metadata"`
	CreatedAt fieldMapping       `json:"created_at"`
}

type fieldMapping struct {
	Type string `json:"type"`
}

type denseVectorMapping struct {
	Type       string `json:"type"`
	Dims       int    `json:"dims"`
	Index      bool   `json:"index"`
	Similarity string `json:"similarity"`
}

// esError is the error envelope Elasticsearch returns on failures.
type esError struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// getResponse is the body of GET /{index}/_doc/{id}.
type getResponse struct {
	ID     string     `json:"_id"`
	Found  bool       `json:"found"`
	Source esDocument `json:"_source"`
}

// deleteResponse is the body of DELETE /{index}/_doc/{id}.
type deleteResponse struct {
	Result string `json:"result"`
}

// deleteByQueryRequest is the body for POST /{index}/_delete_by_query.
type deleteByQueryRequest struct {
	Query matchAllQuery `json:"query"`
}

type matchAllQuery struct {
	MatchAll struct{} `json:"match_all"`
}

// deleteByQueryResponse is the body of POST /{index}/_delete_by_query.
type deleteByQueryResponse struct {
	Deleted int64 `json:"deleted"`
}

// knnSearchRequest is the body for POST /{index}/_search.
type knnSearchRequest struct {
	KNN  knnClause `json:"knn"`
	Size int       `json:"size"`
}

type knnClause struct {
	Field         string    `json:"field"`
	QueryVector   []float32 `json:"query_vector"`
	K             int       `json:"k"`
	NumCandidates int       `json:"num_candidates"`
}

// knnSearchResponse is the body of POST /{index}/_search.
type knnSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string     `json:"_id"`
			Score  float64    `json:"_score"`
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// countResponse is the body of GET /{index}/_count.
type countResponse struct {
	Count int64 `json:"count"`
}

// NewElasticIndex creates a client for the index at baseURL.
func NewElasticIndex(baseURL, name string, dimensions int) *ElasticIndex {
	return &ElasticIndex{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		name:       name,
		dimensions: dimensions,
		client:     &http.Client{Timeout: crudTimeout},
	}
}

// Exists checks index existence with a HEAD request.
func (e *ElasticIndex) Exists(ctx context.Context) (bool, error) {
	resp, err := e.do(ctx, http.MethodHead, e.indexURL(), nil)
	if err != nil {
		return false, fmt.Errorf("check index existence: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("check index existence: status %d", resp.StatusCode)
	}
}

// Create creates the index with a dense_vector mapping bound to the configured
// dimension and cosine similarity. A "resource_already_exists_exception" from
// a concurrent racer is treated as success.
func (e *ElasticIndex) Create(ctx context.Context) error {
	body := createIndexRequest{
		Mappings: mappings{
			Properties: properties{
				Text: fieldMapping{Type: "text"},
				Vector: denseVectorMapping{
					Type:       "dense_vector",
					Dims:       e.dimensions,
					Index:      true,
					Similarity: "cosine",
				},
				Metadata:  fieldMapping{Type: "flattened"},
				CreatedAt: fieldMapping{Type: "date"},
			},
		},
	}
	resp, err := e.do(ctx, http.MethodPut, e.indexURL(), body)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var esErr esError
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &esErr) == nil && esErr.Error.Type == "resource_already_exists_exception" {
		return nil
	}
	return fmt.Errorf("create index: status %d: %s", resp.StatusCode, string(data))
}

// Put writes a document under its id. Writes are refreshed immediately so a
// subsequent Get or search observes them.
func (e *ElasticIndex) Put(ctx context.Context, doc *models.EmbeddingDocument) error {
	if len(doc.Vector) != e.dimensions {
		return fmt.Errorf("%w: vector dimension mismatch: got %d, expected %d",
			models.ErrIndexWriteFailed, len(doc.Vector), e.dimensions)
	}
	body := esDocument{
		Text:      doc.Text,
		Vector:    doc.Vector,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
	}
	resp, err := e.do(ctx, http.MethodPut, e.docURL(doc.ID)+"?refresh=true", body)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWriteFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", models.ErrIndexWriteFailed, resp.StatusCode, string(data))
	}
	return nil
}

// Get returns the document with the given id, or models.ErrNotFound.
func (e *ElasticIndex) Get(ctx context.Context, id string) (*models.EmbeddingDocument, error) {
	resp, err := e.do(ctx, http.MethodGet, e.docURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: document %s", models.ErrNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get document %s: status %d", id, resp.StatusCode)
	}
	var out getResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("get document %s: decode response: %w", id, err)
	}
	if !out.Found {
		return nil, fmt.Errorf("%w: document %s", models.ErrNotFound, id)
	}
	return docFromSource(out.ID, out.Source), nil
}

// Delete removes a document and reports whether it existed.
func (e *ElasticIndex) Delete(ctx context.Context, id string) (bool, error) {
	resp, err := e.do(ctx, http.MethodDelete, e.docURL(id)+"?refresh=true", nil)
	if err != nil {
		return false, fmt.Errorf("delete document %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("delete document %s: status %d", id, resp.StatusCode)
	}
	var out deleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("delete document %s: decode response: %w", id, err)
	}
	return out.Result == "deleted", nil
}

// DeleteAll removes every document via delete-by-query and returns the count.
func (e *ElasticIndex) DeleteAll(ctx context.Context) (int64, error) {
	resp, err := e.do(ctx, http.MethodPost, e.indexURL()+"/_delete_by_query?refresh=true", deleteByQueryRequest{})
	if err != nil {
		return 0, fmt.Errorf("delete all documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("delete all documents: status %d: %s", resp.StatusCode, string(data))
	}
	var out deleteByQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("delete all documents: decode response: %w", err)
	}
	return out.Deleted, nil
}

// KNNSearch runs an approximate k-NN query. Elasticsearch reports
// (1+cosine)/2 as the score for cosine dense_vector fields; that genuine
// value is propagated unchanged.
func (e *ElasticIndex) KNNSearch(ctx context.Context, vector []float32, k, numCandidates int) ([]*Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	body := knnSearchRequest{
		KNN: knnClause{
			Field:         "vector",
			QueryVector:   vector,
			K:             k,
			NumCandidates: numCandidates,
		},
		Size: k,
	}
	resp, err := e.do(ctx, http.MethodPost, e.indexURL()+"/_search", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrSearchFailed, resp.StatusCode, string(data))
	}
	var out knnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrSearchFailed, err)
	}
	hits := make([]*Hit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, &Hit{
			Document: docFromSource(h.ID, h.Source),
			Score:    h.Score,
		})
	}
	return hits, nil
}

// Count returns the number of documents in the index.
func (e *ElasticIndex) Count(ctx context.Context) (int64, error) {
	resp, err := e.do(ctx, http.MethodGet, e.indexURL()+"/_count", nil)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("count documents: status %d", resp.StatusCode)
	}
	var out countResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("count documents: decode response: %w", err)
	}
	return out.Count, nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (e *ElasticIndex) Close() error {
	return nil
}

func (e *ElasticIndex) indexURL() string {
	return e.baseURL + "/" + url.PathEscape(e.name)
}

func (e *ElasticIndex) docURL(id string) string {
	return e.indexURL() + "/_doc/" + url.PathEscape(id)
}

// do sends a request with an optional JSON body.
func (e *ElasticIndex) do(ctx context.Context, method, rawURL string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.client.Do(req)
}

func docFromSource(id string, src esDocument) *models.EmbeddingDocument {
	return &models.EmbeddingDocument{
		ID:        id,
		Text:      src.Text,
		Vector:    src.Vector,
		Metadata:  src.Metadata,
		CreatedAt: src.CreatedAt,
	}
}
