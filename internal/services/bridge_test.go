package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/internal/infrastructure/localcache"
	"github.com/fastygo/kanban/internal/testutil"
	"github.com/fastygo/kanban/repository"
	"github.com/fastygo/kanban/repository/memory"
	"github.com/fastygo/kanban/usecase"
	"github.com/fastygo/kanban/usecase/board"
	"github.com/fastygo/kanban/usecase/game"
)

var errRemoteDown = errors.New("remote down")

// flakyStore wraps the in-memory store, counting writes and failing them
// while down is set.
type flakyStore struct {
	*memory.DocumentStore
	down    atomic.Bool
	upserts atomic.Int32
	deletes atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{DocumentStore: memory.NewDocumentStore()}
}

func (f *flakyStore) Upsert(ctx context.Context, collection, id string, data json.RawMessage) error {
	f.upserts.Add(1)
	if f.down.Load() {
		return errRemoteDown
	}
	return f.DocumentStore.Upsert(ctx, collection, id, data)
}

func (f *flakyStore) DeleteBatch(ctx context.Context, refs []repository.DocumentRef) error {
	f.deletes.Add(1)
	if f.down.Load() {
		return errRemoteDown
	}
	return f.DocumentStore.DeleteBatch(ctx, refs)
}

func (f *flakyStore) GetAll(ctx context.Context, collection string) ([]repository.Document, error) {
	if f.down.Load() {
		return nil, errRemoteDown
	}
	return f.DocumentStore.GetAll(ctx, collection)
}

func (f *flakyStore) Ping(ctx context.Context) error {
	if f.down.Load() {
		return errRemoteDown
	}
	return nil
}

func openCache(t *testing.T) *localcache.Store {
	t.Helper()
	cache, err := localcache.Open(filepath.Join(t.TempDir(), "kanban.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func newStore() *usecase.Store {
	clock := testutil.NewClock(testutil.Epoch)
	return usecase.NewStore(usecase.StoreOptions{
		BoardEnv: board.Env{Now: clock.Now, NewID: testutil.Sequence("id")},
		GameEnv:  game.Env{Location: time.UTC},
	})
}

func seedRemote(t *testing.T, remote repository.DocumentStore, boards ...domain.Board) {
	t.Helper()
	ctx := context.Background()
	br := repository.NewBoardRepository(remote)
	mr := repository.NewMetadataRepository(remote)
	for _, b := range boards {
		if err := br.Save(ctx, b); err != nil {
			t.Fatalf("seed board: %v", err)
		}
		if err := mr.Save(ctx, testutil.MetadataFor(b)); err != nil {
			t.Fatalf("seed metadata: %v", err)
		}
	}
}

func eventually(t *testing.T, within time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHydratePrefersRemote(t *testing.T) {
	remote := newFlakyStore()
	seedRemote(t, remote, testutil.NewBoard("remote").WithDefaultColumns().Build())
	cache := openCache(t)
	local := testutil.NewBoard("local").Build()
	if err := cache.SaveSnapshot([]domain.Board{local}, []domain.BoardMetadata{testutil.MetadataFor(local)}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{})
	if err := bridge.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	st, _ := store.Snapshot()
	if len(st.Boards) != 1 || st.Boards[0].ID != "remote" || st.ActiveBoardID != "remote" {
		t.Fatalf("expected remote board active, got %+v", st.Boards)
	}
	cached, _, _ := cache.LoadSnapshot()
	if len(cached) != 1 || cached[0].ID != "remote" {
		t.Fatal("remote snapshot must be mirrored into the cache")
	}
	if remote.upserts.Load() != 2 {
		t.Fatalf("hydration must not write back, saw %d upserts", remote.upserts.Load())
	}
}

func TestHydrateFallsBackToLocal(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*flakyStore)
	}{
		{"remote empty", func(*flakyStore) {}},
		{"remote down", func(f *flakyStore) { f.down.Store(true) }},
		{"metadata missing", func(f *flakyStore) {
			_ = repository.NewBoardRepository(f).Save(context.Background(), testutil.NewBoard("orphan").Build())
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remote := newFlakyStore()
			tc.setup(remote)
			cache := openCache(t)
			b1 := testutil.NewBoard("b1").Build()
			b2 := testutil.NewBoard("b2").Build()
			_ = cache.SaveSnapshot([]domain.Board{b1, b2}, []domain.BoardMetadata{testutil.MetadataFor(b1), testutil.MetadataFor(b2)})
			_ = cache.SaveActiveBoard("b2")
			_ = cache.SaveGame(domain.GameState{TotalPoints: 120})

			store := newStore()
			if err := NewBridge(store, remote, cache, nil, BridgeConfig{}).Hydrate(context.Background()); err != nil {
				t.Fatalf("hydrate: %v", err)
			}
			st, g := store.Snapshot()
			if len(st.Boards) != 2 || st.ActiveBoardID != "b2" {
				t.Fatalf("expected local boards with b2 active, got %d / %q", len(st.Boards), st.ActiveBoardID)
			}
			if g.TotalPoints != 120 || g.Level != 2 {
				t.Fatalf("game state not restored: %+v", g)
			}
		})
	}
}

func TestDebounceCoalescesWrites(t *testing.T) {
	remote := newFlakyStore()
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: 50 * time.Millisecond})
	if err := bridge.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	bridge.Start()
	defer bridge.Close(context.Background())

	if _, err := store.DispatchBoard(board.CreateBoard{Name: "Sprint"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	st, _ := store.Snapshot()
	todo := st.Boards[0].Columns[0].ID
	for i := 0; i < 3; i++ {
		if _, err := store.DispatchBoard(board.AddCard{Title: "task", ColumnID: todo}); err != nil {
			t.Fatalf("add card: %v", err)
		}
	}
	if !bridge.Status().Pending {
		t.Fatal("write must be pending during the debounce window")
	}

	eventually(t, 2*time.Second, func() bool { return remote.Len(repository.CollectionBoards) == 1 })
	time.Sleep(100 * time.Millisecond)
	if n := remote.upserts.Load(); n != 2 {
		t.Fatalf("expected a single coalesced write of board and metadata, got %d upserts", n)
	}

	saved, err := repository.NewBoardRepository(remote).Get(context.Background(), st.Boards[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(saved.Columns[0].Cards) != 3 {
		t.Fatalf("remote must hold the final state, got %d cards", len(saved.Columns[0].Cards))
	}
	cached, _, _ := cache.LoadSnapshot()
	if len(cached) != 1 || len(cached[0].Columns[0].Cards) != 3 {
		t.Fatal("local cache must hold the final state")
	}
	status := bridge.Status()
	if status.Pending || status.LastSync == nil || status.Backend != "memory" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestFailedWritesGoToOutbox(t *testing.T) {
	remote := newFlakyStore()
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: time.Hour})
	_ = bridge.Hydrate(context.Background())
	bridge.Start()

	if _, err := store.DispatchBoard(board.CreateBoard{Name: "Offline"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	remote.down.Store(true)

	err := bridge.Flush(context.Background())
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if size, _ := cache.Size(); size != 2 {
		t.Fatalf("expected board and metadata in outbox, got %d", size)
	}
	status := bridge.Status()
	if status.Deferred != 2 || status.LastError == "" {
		t.Fatalf("unexpected status %+v", status)
	}
	cached, _, _ := cache.LoadSnapshot()
	if len(cached) != 1 {
		t.Fatal("local cache must be written even when the remote is down")
	}

	remote.down.Store(false)
	processor := NewSyncProcessor(cache, remote, nil, nil, ProcessorConfig{})
	if err := processor.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if processor.Size() != 0 {
		t.Fatalf("outbox must be empty after replay, got %d", processor.Size())
	}
	if remote.Len(repository.CollectionBoards) != 1 || remote.Len(repository.CollectionMetadata) != 1 {
		t.Fatal("replay must land both documents")
	}
}

func TestSuccessfulWriteClearsStaleOutboxEntry(t *testing.T) {
	remote := newFlakyStore()
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: time.Hour})
	_ = bridge.Hydrate(context.Background())
	bridge.Start()

	_, _ = store.DispatchBoard(board.CreateBoard{Name: "A"})
	remote.down.Store(true)
	_ = bridge.Flush(context.Background())
	remote.down.Store(false)
	if err := bridge.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if size, _ := cache.Size(); size != 0 {
		t.Fatalf("fresh write must supersede the outbox entry, %d left", size)
	}
}

func TestCloseFlushesPendingWrite(t *testing.T) {
	remote := newFlakyStore()
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: time.Hour})
	_ = bridge.Hydrate(context.Background())
	bridge.Start()

	_, _ = store.DispatchBoard(board.CreateBoard{Name: "Last words"})
	if err := bridge.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if remote.Len(repository.CollectionBoards) != 1 {
		t.Fatal("close must flush the pending write")
	}

	_, _ = store.DispatchBoard(board.CreateBoard{Name: "After close"})
	if bridge.Status().Pending {
		t.Fatal("closed bridge must not schedule writes")
	}
	if err := bridge.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDeletedBoardRemovedRemotely(t *testing.T) {
	remote := newFlakyStore()
	seedRemote(t, remote, testutil.NewBoard("b1").Build(), testutil.NewBoard("b2").Build())
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: time.Hour})
	if err := bridge.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	bridge.Start()

	if _, err := store.DispatchBoard(board.DeleteBoard{ID: "b1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remote.down.Store(true)
	_ = bridge.Flush(context.Background())
	items, _ := cache.PendingBatch(10)
	found := false
	for _, it := range items {
		if it.Operation == localcache.OperationDeletePair && it.ID == "b1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("failed delete must be queued, got %+v", items)
	}

	remote.down.Store(false)
	if err := NewSyncProcessor(cache, remote, nil, nil, ProcessorConfig{}).Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if remote.Len(repository.CollectionBoards) != 1 || remote.Len(repository.CollectionMetadata) != 1 {
		t.Fatalf("expected b2 only, got %d boards %d metadata", remote.Len(repository.CollectionBoards), remote.Len(repository.CollectionMetadata))
	}
	if _, err := remote.Get(context.Background(), repository.CollectionBoards, "b1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("b1 must be gone, got %v", err)
	}
}

func TestActiveBoardAndGameSavedImmediately(t *testing.T) {
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, nil, cache, nil, BridgeConfig{Debounce: time.Hour})
	_ = bridge.Hydrate(context.Background())
	bridge.Start()
	defer bridge.Close(context.Background())

	_, _ = store.DispatchBoard(board.CreateBoard{Name: "A"})
	_, _ = store.DispatchBoard(board.CreateBoard{Name: "B"})
	st, _ := store.Snapshot()
	if _, err := store.DispatchBoard(board.SetActiveBoard{ID: st.Boards[0].ID}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	store.DispatchGame(game.AchievementUnlocked{ID: "first-task"})

	active, _ := cache.LoadActiveBoard()
	if active != st.Boards[0].ID {
		t.Fatalf("expected cached active %q, got %q", st.Boards[0].ID, active)
	}
	g, ok, _ := cache.LoadGame()
	if !ok || g.TotalPoints != 50 {
		t.Fatalf("game state not cached: %+v", g)
	}
	if bridge.Status().Backend != "none" {
		t.Fatal("bridge without remote reports backend none")
	}
}

func TestConcurrentDispatchAndFlush(t *testing.T) {
	remote := newFlakyStore()
	cache := openCache(t)
	store := newStore()
	bridge := NewBridge(store, remote, cache, nil, BridgeConfig{Debounce: 10 * time.Millisecond, Concurrency: 2})
	_ = bridge.Hydrate(context.Background())
	bridge.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.DispatchBoard(board.CreateBoard{Name: "parallel"})
			_ = bridge.Flush(context.Background())
		}()
	}
	wg.Wait()
	if err := bridge.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := bridge.Flush(context.Background()); err != nil {
		t.Fatalf("final flush: %v", err)
	}
	if remote.Len(repository.CollectionBoards) != 8 || remote.Len(repository.CollectionMetadata) != 8 {
		t.Fatalf("expected 8 boards remotely, got %d", remote.Len(repository.CollectionBoards))
	}
}

func TestClearedDescriptionSurvivesRehydrate(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyStore()

	store := newStore()
	bridge := NewBridge(store, remote, openCache(t), nil, BridgeConfig{Debounce: time.Hour})
	if err := bridge.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	bridge.Start()

	if _, err := store.DispatchBoard(board.CreateBoard{Name: "Sprint", Description: "old desc"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := bridge.Flush(ctx); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	st, _ := store.Snapshot()
	id := st.ActiveBoardID
	if _, err := store.DispatchBoard(board.UpdateBoardMetadata{ID: id, Name: "Sprint", Description: ""}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := bridge.Flush(ctx); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if err := bridge.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	restored := newStore()
	if err := NewBridge(restored, remote, openCache(t), nil, BridgeConfig{}).Hydrate(ctx); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	st, _ = restored.Snapshot()
	b, ok := st.Board(id)
	meta, metaOK := st.MetadataFor(id)
	if !ok || !metaOK {
		t.Fatalf("board %s not restored from remote", id)
	}
	if b.Description != "" || meta.Description != "" {
		t.Fatalf("cleared description came back: board=%q metadata=%q", b.Description, meta.Description)
	}
}

func TestFlushPushesEveryBoard(t *testing.T) {
	ctx := context.Background()
	remote := newFlakyStore()
	store := newStore()
	bridge := NewBridge(store, remote, openCache(t), nil, BridgeConfig{Debounce: time.Hour, Concurrency: 4})
	if err := bridge.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	bridge.Start()
	defer bridge.Close(ctx)

	for i := 0; i < 6; i++ {
		if _, err := store.DispatchBoard(board.CreateBoard{Name: "board"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := bridge.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	st, _ := store.Snapshot()
	if remote.Len(repository.CollectionBoards) != 6 || remote.Len(repository.CollectionMetadata) != 6 {
		t.Fatalf("expected 6 boards and 6 metadata remotely, got %d and %d",
			remote.Len(repository.CollectionBoards), remote.Len(repository.CollectionMetadata))
	}
	for _, b := range st.Boards {
		if _, err := remote.Get(ctx, repository.CollectionBoards, b.ID); err != nil {
			t.Fatalf("board %s missing remotely: %v", b.ID, err)
		}
		if _, err := remote.Get(ctx, repository.CollectionMetadata, b.ID); err != nil {
			t.Fatalf("metadata %s missing remotely: %v", b.ID, err)
		}
	}
}
