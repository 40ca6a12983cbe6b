package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastygo/kanban/domain"
)

// BoardRepository persists boards as documents in the boards collection.
type BoardRepository interface {
	List(ctx context.Context) ([]domain.Board, error)
	Get(ctx context.Context, id string) (*domain.Board, error)
	Save(ctx context.Context, board domain.Board) error
	Delete(ctx context.Context, id string) error
}

// MetadataRepository persists board metadata in the boards_metadata collection.
type MetadataRepository interface {
	List(ctx context.Context) ([]domain.BoardMetadata, error)
	Get(ctx context.Context, id string) (*domain.BoardMetadata, error)
	Save(ctx context.Context, meta domain.BoardMetadata) error
	// DeleteWithBoard removes the board and its metadata together.
	DeleteWithBoard(ctx context.Context, id string) error
}

type boardRepository struct {
	store DocumentStore
}

// NewBoardRepository wraps a DocumentStore with board encoding.
func NewBoardRepository(store DocumentStore) BoardRepository {
	return &boardRepository{store: store}
}

func (r *boardRepository) List(ctx context.Context) ([]domain.Board, error) {
	docs, err := r.store.GetAll(ctx, CollectionBoards)
	if err != nil {
		return nil, err
	}
	boards := make([]domain.Board, 0, len(docs))
	for _, doc := range docs {
		board, err := decodeBoard(doc)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, nil
}

func (r *boardRepository) Get(ctx context.Context, id string) (*domain.Board, error) {
	doc, err := r.store.Get(ctx, CollectionBoards, id)
	if err != nil {
		return nil, err
	}
	board, err := decodeBoard(*doc)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) Save(ctx context.Context, board domain.Board) error {
	if board.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return r.store.Upsert(ctx, CollectionBoards, board.ID, payload)
}

func (r *boardRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionBoards, id)
}

type metadataRepository struct {
	store DocumentStore
}

// NewMetadataRepository wraps a DocumentStore with metadata encoding.
func NewMetadataRepository(store DocumentStore) MetadataRepository {
	return &metadataRepository{store: store}
}

func (r *metadataRepository) List(ctx context.Context) ([]domain.BoardMetadata, error) {
	docs, err := r.store.GetAll(ctx, CollectionMetadata)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BoardMetadata, 0, len(docs))
	for _, doc := range docs {
		meta, err := decodeMetadata(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

func (r *metadataRepository) Get(ctx context.Context, id string) (*domain.BoardMetadata, error) {
	doc, err := r.store.Get(ctx, CollectionMetadata, id)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMetadata(*doc)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *metadataRepository) Save(ctx context.Context, meta domain.BoardMetadata) error {
	if meta.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.store.Upsert(ctx, CollectionMetadata, meta.ID, payload)
}

func (r *metadataRepository) DeleteWithBoard(ctx context.Context, id string) error {
	return r.store.DeleteBatch(ctx, PairRefs(id))
}

// PairRefs returns the board and metadata refs sharing id.
func PairRefs(id string) []DocumentRef {
	return []DocumentRef{
		{Collection: CollectionBoards, ID: id},
		{Collection: CollectionMetadata, ID: id},
	}
}

func decodeBoard(doc Document) (domain.Board, error) {
	var board domain.Board
	if err := json.Unmarshal(doc.Data, &board); err != nil {
		return domain.Board{}, fmt.Errorf("decode board %s: %w", doc.ID, err)
	}
	if board.ID == "" {
		board.ID = doc.ID
	}
	if board.CreatedAt.IsZero() {
		board.CreatedAt = doc.CreatedAt
	}
	if board.UpdatedAt.IsZero() {
		board.UpdatedAt = doc.UpdatedAt
	}
	board.Normalize()
	return board, nil
}

func decodeMetadata(doc Document) (domain.BoardMetadata, error) {
	var meta domain.BoardMetadata
	if err := json.Unmarshal(doc.Data, &meta); err != nil {
		return domain.BoardMetadata{}, fmt.Errorf("decode board metadata %s: %w", doc.ID, err)
	}
	if meta.ID == "" {
		meta.ID = doc.ID
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = doc.CreatedAt
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = doc.UpdatedAt
	}
	meta.Normalize()
	return meta, nil
}
