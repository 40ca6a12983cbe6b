package repository

import (
	"context"
	"encoding/json"
	"time"
)

const (
	CollectionBoards   = "boards"
	CollectionMetadata = "boards_metadata"
)

// DocumentRef addresses a single document.
type DocumentRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Document is a JSON object stored under a collection.
type Document struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DocumentStore is the remote schemaless store boards are mirrored to.
//
// Upsert creates the document when absent and shallow-merges top-level fields
// into it otherwise. DeleteBatch removes every referenced document or none.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Create(ctx context.Context, collection string, data json.RawMessage) (string, error)
	Upsert(ctx context.Context, collection, id string, data json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	DeleteBatch(ctx context.Context, refs []DocumentRef) error
	Ping(ctx context.Context) error
	Backend() string
}

// MergeDocuments overlays the top-level fields of patch onto base. A base
// that is not a JSON object is replaced by patch.
func MergeDocuments(base, patch json.RawMessage) (json.RawMessage, error) {
	if len(base) == 0 {
		return patch, nil
	}
	var dst map[string]json.RawMessage
	if err := json.Unmarshal(base, &dst); err != nil || dst == nil {
		return patch, nil
	}
	var src map[string]json.RawMessage
	if err := json.Unmarshal(patch, &src); err != nil {
		return nil, err
	}
	for k, v := range src {
		dst[k] = v
	}
	return json.Marshal(dst)
}
