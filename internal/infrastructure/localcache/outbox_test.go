package localcache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnqueueReplacesOlderWrite(t *testing.T) {
	store := openTestStore(t)
	t0 := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Enqueue(Item{Collection: "boards", ID: "b1", Operation: OperationUpsert, Data: json.RawMessage(`{"v":1}`), Timestamp: t0}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Enqueue(Item{Collection: "boards", ID: "b1", Operation: OperationUpsert, Data: json.RawMessage(`{"v":2}`), Timestamp: t0.Add(time.Second)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	size, err := store.Size()
	if err != nil || size != 1 {
		t.Fatalf("expected 1 pending item, got %d (%v)", size, err)
	}
	items, err := store.PendingBatch(10)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if string(items[0].Data) != `{"v":2}` {
		t.Fatalf("expected newest payload, got %s", items[0].Data)
	}
}

func TestRemoveSkipsReplacedItem(t *testing.T) {
	store := openTestStore(t)
	t0 := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	old := Item{Collection: "boards", ID: "b1", Operation: OperationUpsert, Data: json.RawMessage(`{"v":1}`), Timestamp: t0}
	if err := store.Enqueue(old); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Enqueue(Item{Collection: "boards", ID: "b1", Operation: OperationUpsert, Data: json.RawMessage(`{"v":2}`), Timestamp: t0.Add(time.Minute)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := store.Remove(old); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if size, _ := store.Size(); size != 1 {
		t.Fatalf("newer write must survive removal of the older copy, size=%d", size)
	}
	if err := store.Requeue(old); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	items, _ := store.PendingBatch(10)
	if string(items[0].Data) != `{"v":2}` {
		t.Fatalf("requeue of stale item overwrote newer write: %s", items[0].Data)
	}
}

func TestPairDeleteDropsPendingMetadata(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue(Item{Collection: "boards_metadata", ID: "b1", Operation: OperationUpsert, Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.Enqueue(Item{Collection: "boards", ID: "b1", Operation: OperationDeletePair}, "boards_metadata"); err != nil {
		t.Fatalf("enqueue delete: %v", err)
	}
	items, err := store.PendingBatch(10)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(items) != 1 || items[0].Operation != OperationDeletePair {
		t.Fatalf("expected only the pair delete pending, got %+v", items)
	}
}

func TestPendingBatchOrderAndLimit(t *testing.T) {
	store := openTestStore(t)
	t0 := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		if err := store.Enqueue(Item{Collection: "boards", ID: id, Operation: OperationUpsert, Timestamp: t0.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	items, err := store.PendingBatch(2)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(items) != 2 || items[0].ID != "c" || items[1].ID != "a" {
		t.Fatalf("expected oldest two [c a], got %+v", items)
	}
}

func TestRemovePendingAndCleanup(t *testing.T) {
	store := openTestStore(t)
	t0 := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Enqueue(Item{Collection: "boards", ID: "old", Operation: OperationUpsert, Timestamp: t0})
	_ = store.Enqueue(Item{Collection: "boards", ID: "new", Operation: OperationUpsert, Timestamp: t0.Add(time.Hour)})
	_ = store.Enqueue(Item{Collection: "boards", ID: "gone", Operation: OperationUpsert, Timestamp: t0.Add(time.Hour)})

	if err := store.RemovePending("boards", "gone"); err != nil {
		t.Fatalf("remove pending: %v", err)
	}
	if err := store.Cleanup(t0.Add(time.Minute)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	items, _ := store.PendingBatch(10)
	if len(items) != 1 || items[0].ID != "new" {
		t.Fatalf("expected only 'new' to remain, got %+v", items)
	}
}
