package localcache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	OperationUpsert     = "upsert"
	OperationDeletePair = "delete_pair"
)

// Item is a remote write that failed and waits to be replayed.
type Item struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data,omitempty"`
	Retries    int             `json:"retries"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Key identifies the document an item targets. One pending item is kept per key.
func (i Item) Key() string {
	return fmt.Sprintf("%s/%s", i.Collection, i.ID)
}

// Enqueue stores item, replacing any older pending write to the same
// document. A pair delete also discards pending writes to the paired
// metadata document.
func (s *Store) Enqueue(item Item, pairedCollections ...string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(outboxBucket)
		for _, c := range pairedCollections {
			if err := b.Delete([]byte(Item{Collection: c, ID: item.ID}.Key())); err != nil {
				return err
			}
		}
		return b.Put([]byte(item.Key()), payload)
	})
}

// PendingBatch returns up to limit items, oldest first, without removing them.
func (s *Store) PendingBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(outboxBucket).ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.Before(items[j].Timestamp) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Remove deletes item unless a newer write to the same document replaced it.
func (s *Store) Remove(item Item) error {
	return s.swap(item, nil)
}

// Requeue stores item with a fresh timestamp unless a newer write to the
// same document replaced it meanwhile.
func (s *Store) Requeue(item Item) error {
	next := item
	next.Timestamp = time.Now()
	return s.swap(item, &next)
}

// RemovePending unconditionally drops the pending write for a document.
func (s *Store) RemovePending(collection, id string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(outboxBucket).Delete([]byte(Item{Collection: collection, ID: id}.Key()))
	})
}

// Size returns the number of pending items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(outboxBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes pending items older than the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(outboxBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// swap replaces the stored copy of prev with next (nil deletes) when the
// stored copy still carries prev's timestamp.
func (s *Store) swap(prev Item, next *Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(outboxBucket)
		key := []byte(prev.Key())
		raw := b.Get(key)
		if raw == nil {
			return nil
		}
		var stored Item
		if err := json.Unmarshal(raw, &stored); err == nil && !stored.Timestamp.Equal(prev.Timestamp) {
			return nil
		}
		if next == nil {
			return b.Delete(key)
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return b.Put(key, payload)
	})
}
