package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/repository"
)

type documentStore struct {
	pool *pgxpool.Pool
}

// NewDocumentStore creates a Postgres-backed DocumentStore over the documents table.
func NewDocumentStore(pool *pgxpool.Pool) repository.DocumentStore {
	return &documentStore{pool: pool}
}

func (s *documentStore) Backend() string { return "postgres" }

func (s *documentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *documentStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	const query = `
	SELECT id, data, created_at, updated_at
	FROM documents
	WHERE collection = $1 AND id = $2
	`
	doc, err := scanDocument(s.pool.QueryRow(ctx, query, collection, id))
	if err != nil {
		return nil, mapNotFound(err, collection, id)
	}
	return doc, nil
}

func (s *documentStore) GetAll(ctx context.Context, collection string) ([]repository.Document, error) {
	const query = `
	SELECT id, data, created_at, updated_at
	FROM documents
	WHERE collection = $1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]repository.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *documentStore) Create(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	payload, err := jsonObject(data)
	if err != nil {
		return "", err
	}

	const query = `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	`
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, query, collection, id, payload); err != nil {
		return "", err
	}
	return id, nil
}

func (s *documentStore) Upsert(ctx context.Context, collection, id string, data json.RawMessage) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := jsonObject(data)
	if err != nil {
		return err
	}

	const query = `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (collection, id) DO UPDATE
	SET data = documents.data || EXCLUDED.data,
		updated_at = NOW()
	`
	_, err = s.pool.Exec(ctx, query, collection, id, payload)
	return err
}

func (s *documentStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	_, err := s.pool.Exec(ctx, query, collection, id)
	return err
}

func (s *documentStore) DeleteBatch(ctx context.Context, refs []repository.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, ref := range refs {
			batch.Queue(query, ref.Collection, ref.ID)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func scanDocument(row pgx.Row) (*repository.Document, error) {
	var (
		doc  repository.Document
		data []byte
	)
	if err := row.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Data = make(json.RawMessage, len(data))
	copy(doc.Data, data)
	return &doc, nil
}
