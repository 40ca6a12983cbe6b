package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/repository"
)

func TestUpsertCreatesThenMerges(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, repository.CollectionBoards, "b1", json.RawMessage(`{"title":"A","description":"keep"}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, repository.CollectionBoards, "b1", json.RawMessage(`{"title":"B"}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	doc, err := store.Get(ctx, repository.CollectionBoards, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(doc.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["title"] != "B" || got["description"] != "keep" {
		t.Fatalf("unexpected document: %v", got)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.Get(context.Background(), repository.CollectionBoards, "nope")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND code, got %v", err)
	}
}

func TestGetAllOrdersByCreation(t *testing.T) {
	store := NewDocumentStore()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for _, id := range []string{"z", "a", "m"} {
		if err := store.Upsert(ctx, repository.CollectionBoards, id, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	docs, err := store.GetAll(ctx, repository.CollectionBoards)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	want := []string{"z", "a", "m"}
	for i, doc := range docs {
		if doc.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], doc.ID)
		}
	}
}

func TestBoardRepositoryRoundTrip(t *testing.T) {
	store := NewDocumentStore()
	boards := repository.NewBoardRepository(store)
	meta := repository.NewMetadataRepository(store)
	ctx := context.Background()

	due := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	board := domain.Board{
		ID:    "b1",
		Title: "Sprint",
		Columns: []domain.Column{{
			ID:    "c1",
			Title: "To Do",
			Cards: []domain.Card{{ID: "k1", Title: "Task", DueDate: &due}},
		}},
	}
	if err := boards.Save(ctx, board); err != nil {
		t.Fatalf("save board: %v", err)
	}
	if err := meta.Save(ctx, domain.BoardMetadata{ID: "b1", Name: "Sprint"}); err != nil {
		t.Fatalf("save metadata: %v", err)
	}

	got, err := boards.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("get board: %v", err)
	}
	card := got.Columns[0].Cards[0]
	if card.DueDate == nil || !card.DueDate.Equal(due) {
		t.Fatalf("due date not restored: %v", card.DueDate)
	}
	if card.Priority != domain.PriorityMedium || card.ColumnID != "c1" {
		t.Fatalf("card not normalized: %+v", card)
	}

	m, err := meta.Get(ctx, "b1")
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if m.Color != domain.DefaultBoardColor {
		t.Fatalf("expected default color, got %q", m.Color)
	}

	if err := meta.DeleteWithBoard(ctx, "b1"); err != nil {
		t.Fatalf("delete pair: %v", err)
	}
	if store.Len(repository.CollectionBoards) != 0 || store.Len(repository.CollectionMetadata) != 0 {
		t.Fatal("expected both collections empty after pair delete")
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	boards := repository.NewBoardRepository(NewDocumentStore())
	if err := boards.Save(context.Background(), domain.Board{}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
