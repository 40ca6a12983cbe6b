package localcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/kanban/domain"
)

var (
	cacheBucket  = []byte("cache")
	outboxBucket = []byte("outbox")
)

const (
	KeyBoards      = "boards"
	KeyMetadata    = "board_metadata"
	KeyActiveBoard = "active_board"
	KeyGameState   = "game_state"
)

// Store is the local persistence tier: a bbolt file holding the last known
// snapshot and an outbox of remote writes that have not landed yet.
type Store struct {
	db *bolt.DB
}

// Open initializes the bbolt file and ensures both buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{cacheBucket, outboxBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// LoadSnapshot returns the cached boards and metadata. Missing keys and
// undecodable values yield empty slices.
func (s *Store) LoadSnapshot() ([]domain.Board, []domain.BoardMetadata, error) {
	boards, err := decodeKey(s, KeyBoards, []domain.Board{})
	if err != nil {
		return nil, nil, err
	}
	metadata, err := decodeKey(s, KeyMetadata, []domain.BoardMetadata{})
	if err != nil {
		return nil, nil, err
	}
	for i := range boards {
		boards[i].Normalize()
	}
	for i := range metadata {
		metadata[i].Normalize()
	}
	return boards, metadata, nil
}

// SaveSnapshot writes boards and metadata in one transaction.
func (s *Store) SaveSnapshot(boards []domain.Board, metadata []domain.BoardMetadata) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if boards == nil {
		boards = []domain.Board{}
	}
	if metadata == nil {
		metadata = []domain.BoardMetadata{}
	}
	boardsJSON, err := json.Marshal(boards)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(cacheBucket)
		if err := b.Put([]byte(KeyBoards), boardsJSON); err != nil {
			return err
		}
		return b.Put([]byte(KeyMetadata), metaJSON)
	})
}

// LoadActiveBoard returns the cached active board id, or "" when unset.
func (s *Store) LoadActiveBoard() (string, error) {
	raw, err := s.raw(KeyActiveBoard)
	return string(raw), err
}

// SaveActiveBoard stores the raw id. An empty id clears the key.
func (s *Store) SaveActiveBoard(id string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(cacheBucket)
		if id == "" {
			return b.Delete([]byte(KeyActiveBoard))
		}
		return b.Put([]byte(KeyActiveBoard), []byte(id))
	})
}

// LoadGame returns the cached game state. ok is false when none is stored.
func (s *Store) LoadGame() (state domain.GameState, ok bool, err error) {
	raw, err := s.raw(KeyGameState)
	if err != nil || raw == nil {
		return domain.GameState{}, false, err
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.GameState{}, false, nil
	}
	return state, true, nil
}

// SaveGame stores the game state.
func (s *Store) SaveGame(state domain.GameState) error {
	return s.put(KeyGameState, state)
}

// Close closes the bbolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes bbolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

func (s *Store) put(key string, v any) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), payload)
	})
}

// decodeKey returns fallback when key is missing or holds malformed JSON.
func decodeKey[T any](s *Store, key string, fallback T) (T, error) {
	raw, err := s.raw(key)
	if err != nil || raw == nil {
		return fallback, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fallback, nil
	}
	return out, nil
}

func (s *Store) raw(key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(cacheBucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}
