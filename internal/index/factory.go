package index

import (
	"fmt"

	"github.com/hyperjump/kioku/internal/config"
)

// Backend represents the type of vector index to use.
type Backend string

const (
	// BackendBolt uses an embedded bbolt file with brute-force cosine search.
	// Good for single-node deployments and small datasets.
	BackendBolt Backend = "bolt"
	// BackendElasticsearch talks to an external Elasticsearch-compatible store
	// with a dense_vector mapping and approximate k-NN search.
	BackendElasticsearch Backend = "elasticsearch"
)

// New creates a vector index for the configured backend.
// Supported backends: "bolt" (default), "elasticsearch".
func New(cfg *config.IndexConfig, dimensions int) (Index, error) {
	switch Backend(cfg.Backend) {
	case BackendBolt, "":
		return NewBoltIndex(cfg.Path, dimensions)
	case BackendElasticsearch:
		return NewElasticIndex(cfg.URL, cfg.Name, dimensions), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s (supported: bolt, elasticsearch)", cfg.Backend)
	}
}
