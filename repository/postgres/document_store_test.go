package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/repository"
)

func setupTestStore(t *testing.T) repository.DocumentStore {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema)); err != nil {
		pool.Close()
		t.Fatalf("create schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE documents (
		collection text NOT NULL,
		id text NOT NULL,
		data jsonb NOT NULL DEFAULT '{}'::jsonb,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id))`); err != nil {
		pool.Close()
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		pool.Close()
	})
	return NewDocumentStore(pool)
}

func TestDocumentStoreUpsertMerges(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, repository.CollectionBoards, "b1", json.RawMessage(`{"title":"Sprint","description":"keep"}`)); err != nil {
		t.Fatalf("create via upsert: %v", err)
	}
	if err := store.Upsert(ctx, repository.CollectionBoards, "b1", json.RawMessage(`{"title":"Sprint 2"}`)); err != nil {
		t.Fatalf("merge via upsert: %v", err)
	}

	doc, err := store.Get(ctx, repository.CollectionBoards, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(doc.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["title"] != "Sprint 2" || got["description"] != "keep" {
		t.Fatalf("unexpected merge result: %v", got)
	}
}

func TestDocumentStoreGetMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), repository.CollectionBoards, "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDocumentStoreDeleteBatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, repository.CollectionBoards, json.RawMessage(`{"title":"x"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Upsert(ctx, repository.CollectionMetadata, id, json.RawMessage(`{"name":"x"}`)); err != nil {
		t.Fatalf("upsert metadata: %v", err)
	}
	if err := store.DeleteBatch(ctx, repository.PairRefs(id)); err != nil {
		t.Fatalf("delete batch: %v", err)
	}
	for _, c := range []string{repository.CollectionBoards, repository.CollectionMetadata} {
		docs, err := store.GetAll(ctx, c)
		if err != nil {
			t.Fatalf("get all %s: %v", c, err)
		}
		if len(docs) != 0 {
			t.Fatalf("expected %s empty, got %d", c, len(docs))
		}
	}
}

func TestDocumentStoreRejectsNonObject(t *testing.T) {
	store := setupTestStore(t)
	err := store.Upsert(context.Background(), repository.CollectionBoards, "b1", json.RawMessage(`[1,2]`))
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
