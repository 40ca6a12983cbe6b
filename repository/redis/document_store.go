package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/repository"
)

const maxWatchRetries = 5

type documentStore struct {
	client *redislib.Client
	prefix string
	now    func() time.Time
}

// NewDocumentStore creates a Redis-backed DocumentStore. Each document is a
// string key prefix+collection+":"+id and the set prefix+collection indexes
// the ids of a collection.
func NewDocumentStore(client *redislib.Client, prefix string) repository.DocumentStore {
	if prefix == "" {
		prefix = "kanban:"
	}
	return &documentStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *documentStore) Backend() string { return "redis" }

func (s *documentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *documentStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	raw, err := s.client.Get(ctx, s.docKey(collection, id)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.DocumentNotFound(collection, id)
		}
		return nil, err
	}
	return decodeDocument(id, raw)
}

func (s *documentStore) GetAll(ctx context.Context, collection string) ([]repository.Document, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []repository.Document{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]repository.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry whose document is gone
			continue
		}
		doc, err := decodeDocument(ids[i], raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *documentStore) Create(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	id := uuid.NewString()
	now := s.now()
	payload, err := json.Marshal(repository.Document{ID: id, Data: data, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return "", err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, s.docKey(collection, id), payload, 0)
		pipe.SAdd(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Upsert watches only the document's own key, so writers of different
// documents in one collection never abort each other.
func (s *documentStore) Upsert(ctx context.Context, collection, id string, data json.RawMessage) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	key := s.docKey(collection, id)
	index := s.indexKey(collection)

	txf := func(tx *redislib.Tx) error {
		now := s.now()
		doc := repository.Document{ID: id, Data: data, CreatedAt: now, UpdatedAt: now}

		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redislib.Nil):
		case err != nil:
			return err
		default:
			existing, err := decodeDocument(id, raw)
			if err != nil {
				return err
			}
			merged, err := repository.MergeDocuments(existing.Data, data)
			if err != nil {
				return err
			}
			doc.Data = merged
			doc.CreatedAt = existing.CreatedAt
		}

		payload, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, index, id)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redislib.TxFailedErr) {
			continue
		}
		return err
	}
	return redislib.TxFailedErr
}

func (s *documentStore) Delete(ctx context.Context, collection, id string) error {
	return s.DeleteBatch(ctx, []repository.DocumentRef{{Collection: collection, ID: id}})
}

func (s *documentStore) DeleteBatch(ctx context.Context, refs []repository.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		for _, ref := range refs {
			pipe.Del(ctx, s.docKey(ref.Collection, ref.ID))
			pipe.SRem(ctx, s.indexKey(ref.Collection), ref.ID)
		}
		return nil
	})
	return err
}

func (s *documentStore) indexKey(collection string) string {
	return fmt.Sprintf("%s%s", s.prefix, collection)
}

func (s *documentStore) docKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, collection, id)
}

func decodeDocument(id, raw string) (*repository.Document, error) {
	var doc repository.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	doc.ID = id
	return &doc, nil
}
