package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/hyperjump/kioku/internal/models"
)

var (
	bucketMeta      = []byte("meta")
	bucketDocuments = []byte("documents")
	keyDimensions   = []byte("dimensions")
)

// BoltIndex is a bbolt-backed vector index using brute-force cosine search.
// Suitable for single-node deployments and tests; k-NN here is exact, so the
// candidate pool parameter only caps the result size.
type BoltIndex struct {
	db         *bbolt.DB
	dimensions int
}

// NewBoltIndex opens (creating if needed) a bbolt index file at path.
func NewBoltIndex(path string, dimensions int) (*BoltIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	return &BoltIndex{db: db, dimensions: dimensions}, nil
}

// Exists reports whether Create has run against this file.
func (b *BoltIndex) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketMeta) != nil
		return nil
	})
	return exists, err
}

// Create initializes the meta and document buckets. CreateBucketIfNotExists
// makes this naturally idempotent under concurrent first-time startup.
func (b *BoltIndex) Create(ctx context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if err := meta.Put(keyDimensions, []byte(fmt.Sprintf("%d", b.dimensions))); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return fmt.Errorf("create documents bucket: %w", err)
		}
		return nil
	})
}

// Put writes a document under its id.
func (b *BoltIndex) Put(ctx context.Context, doc *models.EmbeddingDocument) error {
	if len(doc.Vector) != b.dimensions {
		return fmt.Errorf("%w: vector dimension mismatch: got %d, expected %d",
			models.ErrIndexWriteFailed, len(doc.Vector), b.dimensions)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", models.ErrIndexWriteFailed, err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return fmt.Errorf("index not initialized")
		}
		return bucket.Put([]byte(doc.ID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWriteFailed, err)
	}
	return nil
}

// Get returns the document with the given id, or models.ErrNotFound.
func (b *BoltIndex) Get(ctx context.Context, id string) (*models.EmbeddingDocument, error) {
	var doc *models.EmbeddingDocument
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return nil
		}
		doc = &models.EmbeddingDocument{}
		return json.Unmarshal(data, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", models.ErrNotFound, id)
	}
	return doc, nil
}

// Delete removes a document and reports whether it existed.
func (b *BoltIndex) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		if bucket.Get([]byte(id)) == nil {
			return nil
		}
		existed = true
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("delete document %s: %w", id, err)
	}
	return existed, nil
}

// DeleteAll removes every document and returns the number removed.
func (b *BoltIndex) DeleteAll(ctx context.Context) (int64, error) {
	var count int64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		count = int64(bucket.Stats().KeyN)
		if err := tx.DeleteBucket(bucketDocuments); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketDocuments)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all documents: %w", err)
	}
	return count, nil
}

// KNNSearch scans all documents and returns the top-k by cosine similarity.
// Scores are mapped to (1+cosine)/2 to match the Elasticsearch backend's
// dense_vector scoring, so both backends report comparable values in [0, 1].
func (b *BoltIndex) KNNSearch(ctx context.Context, vector []float32, k, numCandidates int) ([]*Hit, error) {
	if len(vector) != b.dimensions {
		return nil, fmt.Errorf("%w: query dimension mismatch: got %d, expected %d",
			models.ErrSearchFailed, len(vector), b.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	var hits []*Hit
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, data []byte) error {
			var doc models.EmbeddingDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return err
			}
			hits = append(hits, &Hit{
				Document: &doc,
				Score:    (1 + cosineSimilarity(vector, doc.Vector)) / 2,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchFailed, err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Count returns the number of documents in the index.
func (b *BoltIndex) Count(ctx context.Context) (int64, error) {
	var count int64
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		if bucket == nil {
			return nil
		}
		count = int64(bucket.Stats().KeyN)
		return nil
	})
	return count, err
}

// Close closes the underlying database file.
func (b *BoltIndex) Close() error {
	return b.db.Close()
}

// cosineSimilarity returns dot(a,b) / (|a| * |b|), or 0 for zero-norm inputs.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
