package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/repository"
)

// DocumentStore keeps documents in process memory. It serves REMOTE_STORE=memory
// and stands in for a real backend in tests.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]repository.Document
	now         func() time.Time
}

// NewDocumentStore returns an empty in-memory store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]map[string]repository.Document),
		now:         time.Now,
	}
}

func (s *DocumentStore) Backend() string { return "memory" }

func (s *DocumentStore) Ping(context.Context) error { return nil }

func (s *DocumentStore) Get(_ context.Context, collection, id string) (*repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, domain.DocumentNotFound(collection, id)
	}
	out := doc
	out.Data = append(json.RawMessage(nil), doc.Data...)
	return &out, nil
}

func (s *DocumentStore) GetAll(_ context.Context, collection string) ([]repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]repository.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		doc.Data = append(json.RawMessage(nil), doc.Data...)
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *DocumentStore) Create(_ context.Context, collection string, data json.RawMessage) (string, error) {
	id := uuid.NewString()
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(collection)[id] = repository.Document{
		ID:        id,
		Data:      append(json.RawMessage(nil), data...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

func (s *DocumentStore) Upsert(_ context.Context, collection, id string, data json.RawMessage) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.bucket(collection)
	doc, ok := bucket[id]
	if !ok {
		bucket[id] = repository.Document{
			ID:        id,
			Data:      append(json.RawMessage(nil), data...),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}
	merged, err := repository.MergeDocuments(doc.Data, data)
	if err != nil {
		return err
	}
	doc.Data = merged
	doc.UpdatedAt = now
	bucket[id] = doc
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *DocumentStore) DeleteBatch(_ context.Context, refs []repository.DocumentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range refs {
		delete(s.collections[ref.Collection], ref.ID)
	}
	return nil
}

// Len reports how many documents a collection holds.
func (s *DocumentStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *DocumentStore) bucket(collection string) map[string]repository.Document {
	bucket, ok := s.collections[collection]
	if !ok {
		bucket = make(map[string]repository.Document)
		s.collections[collection] = bucket
	}
	return bucket
}
