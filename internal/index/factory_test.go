package index

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/kioku/internal/config"
)

func TestNew_Bolt(t *testing.T) {
	cfg := &config.IndexConfig{Backend: "bolt", Path: filepath.Join(t.TempDir(), "test.db")}
	idx, err := New(cfg, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, ok := idx.(*BoltIndex); !ok {
		t.Errorf("got %T, want *BoltIndex", idx)
	}
}

func TestNew_DefaultsToBolt(t *testing.T) {
	cfg := &config.IndexConfig{Path: filepath.Join(t.TempDir(), "test.db")}
	idx, err := New(cfg, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, ok := idx.(*BoltIndex); !ok {
		t.Errorf("got %T, want *BoltIndex", idx)
	}
}

func TestNew_Elasticsearch(t *testing.T) {
	cfg := &config.IndexConfig{Backend: "elasticsearch", URL: "http://localhost:9200", Name: "embeddings"}
	idx, err := New(cfg, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, ok := idx.(*ElasticIndex); !ok {
		t.Errorf("got %T, want *ElasticIndex", idx)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := &config.IndexConfig{Backend: "pinecone"}
	if _, err := New(cfg, 4); err == nil {
		t.Error("expected error for unknown backend")
	}
}
