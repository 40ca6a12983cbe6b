package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/internal/infrastructure/localcache"
	"github.com/fastygo/kanban/repository"
	"github.com/fastygo/kanban/usecase"
	"github.com/fastygo/kanban/usecase/board"
)

// LocalCache is the synchronous persistence tier the bridge writes through.
type LocalCache interface {
	LoadSnapshot() ([]domain.Board, []domain.BoardMetadata, error)
	SaveSnapshot(boards []domain.Board, metadata []domain.BoardMetadata) error
	LoadActiveBoard() (string, error)
	SaveActiveBoard(id string) error
	LoadGame() (domain.GameState, bool, error)
	SaveGame(state domain.GameState) error
	Enqueue(item localcache.Item, pairedCollections ...string) error
	RemovePending(collection, id string) error
}

// BridgeConfig controls write-back timing.
type BridgeConfig struct {
	Debounce    time.Duration
	Concurrency int
	PushTimeout time.Duration
}

// Bridge mirrors store state to the local cache and the remote document
// store. Call Hydrate before Start.
type Bridge struct {
	store    *usecase.Store
	remote   repository.DocumentStore
	boards   repository.BoardRepository
	metadata repository.MetadataRepository
	cache    LocalCache
	logger   *zap.Logger
	cfg      BridgeConfig

	mu          sync.Mutex
	timer       *time.Timer
	pending     bool
	closed      bool
	unsubscribe func()
	lastSync    time.Time
	lastErr     error
	deferred    int

	syncMu sync.Mutex
	pushed map[string]struct{}
}

// NewBridge wires the bridge. remote may be nil, in which case only the
// local cache is written.
func NewBridge(store *usecase.Store, remote repository.DocumentStore, cache LocalCache, logger *zap.Logger, cfg BridgeConfig) *Bridge {
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		store:  store,
		remote: remote,
		cache:  cache,
		logger: logger,
		cfg:    cfg,
		pushed: make(map[string]struct{}),
	}
	if remote != nil {
		b.boards = repository.NewBoardRepository(remote)
		b.metadata = repository.NewMetadataRepository(remote)
	}
	return b
}

// Hydrate loads the initial state. Remote data wins when both collections
// are non-empty; otherwise the local cache is used. Game state always comes
// from the local cache.
func (b *Bridge) Hydrate(ctx context.Context) error {
	boards, metadata, fromRemote := b.loadRemote(ctx)
	if fromRemote {
		if err := b.cache.SaveSnapshot(boards, metadata); err != nil {
			b.logger.Warn("failed to mirror remote snapshot to local cache", zap.Error(err))
		}
	} else {
		var err error
		boards, metadata, err = b.cache.LoadSnapshot()
		if err != nil {
			return fmt.Errorf("load local snapshot: %w", err)
		}
	}

	if _, err := b.store.DispatchBoard(board.SetBoards{Boards: boards, Metadata: metadata}); err != nil {
		return err
	}

	active, err := b.cache.LoadActiveBoard()
	if err != nil {
		b.logger.Warn("failed to read cached active board", zap.Error(err))
	}
	if active != "" {
		if _, err := b.store.DispatchBoard(board.SetActiveBoard{ID: active}); err != nil {
			b.logger.Debug("cached active board no longer exists", zap.String("board_id", active))
		}
	}

	if state, ok, err := b.cache.LoadGame(); err != nil {
		b.logger.Warn("failed to read cached game state", zap.Error(err))
	} else if ok {
		b.store.RestoreGame(state)
	}

	b.syncMu.Lock()
	for _, bd := range boards {
		b.pushed[bd.ID] = struct{}{}
	}
	b.syncMu.Unlock()

	source := "local"
	if fromRemote {
		source = "remote"
	}
	b.logger.Info("state hydrated",
		zap.String("source", source),
		zap.Int("boards", len(boards)),
		zap.Int("metadata", len(metadata)))
	return nil
}

// Start subscribes the bridge to store changes.
func (b *Bridge) Start() {
	unsubscribe := b.store.Subscribe(b.onChange)
	b.mu.Lock()
	b.unsubscribe = unsubscribe
	b.mu.Unlock()
}

// Flush writes the current state immediately, cancelling a pending
// debounced write.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = false
	b.mu.Unlock()
	return b.write(ctx)
}

// Close stops listening and flushes a pending debounced write.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	pending := b.pending
	if b.timer != nil {
		b.timer.Stop()
	}
	b.pending = false
	b.mu.Unlock()

	if !pending {
		return nil
	}
	return b.write(ctx)
}

// Status reports the write-back state.
func (b *Bridge) Status() usecase.SyncStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	status := usecase.SyncStatus{
		Backend:  "none",
		Pending:  b.pending,
		Deferred: b.deferred,
	}
	if b.remote != nil {
		status.Backend = b.remote.Backend()
	}
	if !b.lastSync.IsZero() {
		t := b.lastSync
		status.LastSync = &t
	}
	if b.lastErr != nil {
		status.LastError = b.lastErr.Error()
	}
	return status
}

func (b *Bridge) onChange(c usecase.Change) {
	if c.ActiveChanged() {
		if err := b.cache.SaveActiveBoard(c.Next.ActiveBoardID); err != nil {
			b.logger.Error("failed to save active board", zap.Error(err))
		}
	}
	if c.GameChanged {
		if err := b.cache.SaveGame(c.NextGame); err != nil {
			b.logger.Error("failed to save game state", zap.Error(err))
		}
	}
	if c.BoardsChanged() {
		b.schedule()
	}
}

func (b *Bridge) schedule() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.pending = true
	if b.timer == nil {
		b.timer = time.AfterFunc(b.cfg.Debounce, b.fire)
		return
	}
	b.timer.Reset(b.cfg.Debounce)
}

func (b *Bridge) fire() {
	b.mu.Lock()
	if !b.pending {
		b.mu.Unlock()
		return
	}
	b.pending = false
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.PushTimeout)
	defer cancel()
	if err := b.write(ctx); err != nil {
		b.logger.Warn("debounced write-back incomplete", zap.Error(err))
	}
}

func (b *Bridge) write(ctx context.Context) error {
	b.syncMu.Lock()
	defer b.syncMu.Unlock()

	st, _ := b.store.Snapshot()
	if err := b.cache.SaveSnapshot(st.Boards, st.Metadata); err != nil {
		b.logger.Error("failed to save local snapshot", zap.Error(err))
	}

	var err error
	if b.remote != nil {
		err = b.push(ctx, st)
	}

	b.mu.Lock()
	b.lastSync = time.Now()
	b.lastErr = err
	b.mu.Unlock()
	return err
}

// push writes every board and metadata record individually and removes
// boards that disappeared since the previous push. Failed writes go to the
// outbox and do not stop the others.
func (b *Bridge) push(ctx context.Context, st board.State) error {
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	current := make(map[string]struct{}, len(st.Boards))
	for _, bd := range st.Boards {
		bd := bd
		current[bd.ID] = struct{}{}
		g.Go(func() error {
			if !b.upsert(repository.CollectionBoards, bd.ID, bd, func() error { return b.boards.Save(gctx, bd) }) {
				failed.Add(1)
			}
			return nil
		})
	}
	for _, m := range st.Metadata {
		m := m
		g.Go(func() error {
			if !b.upsert(repository.CollectionMetadata, m.ID, m, func() error { return b.metadata.Save(gctx, m) }) {
				failed.Add(1)
			}
			return nil
		})
	}
	for id := range b.pushed {
		if _, ok := current[id]; ok {
			continue
		}
		id := id
		g.Go(func() error {
			if !b.deletePair(gctx, id) {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	b.pushed = current

	n := int(failed.Load())
	b.mu.Lock()
	b.deferred = n
	b.mu.Unlock()
	if n > 0 {
		return domain.WrapError(domain.ErrCodeUnavailable, fmt.Sprintf("%d remote writes deferred", n), domain.ErrRemoteUnavailable)
	}
	return nil
}

func (b *Bridge) upsert(collection, id string, v any, save func() error) bool {
	if err := save(); err != nil {
		b.logger.Error("remote write failed",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err))
		payload, mErr := json.Marshal(v)
		if mErr != nil {
			b.logger.Error("failed to encode document for outbox", zap.Error(mErr))
			return false
		}
		b.enqueue(localcache.Item{Collection: collection, ID: id, Operation: localcache.OperationUpsert, Data: payload})
		return false
	}
	if err := b.cache.RemovePending(collection, id); err != nil {
		b.logger.Warn("failed to clear outbox entry", zap.String("id", id), zap.Error(err))
	}
	return true
}

func (b *Bridge) deletePair(ctx context.Context, id string) bool {
	if err := b.metadata.DeleteWithBoard(ctx, id); err != nil {
		b.logger.Error("remote delete failed", zap.String("board_id", id), zap.Error(err))
		b.enqueue(localcache.Item{Collection: repository.CollectionBoards, ID: id, Operation: localcache.OperationDeletePair}, repository.CollectionMetadata)
		return false
	}
	if err := b.cache.RemovePending(repository.CollectionBoards, id); err != nil {
		b.logger.Warn("failed to clear outbox entry", zap.String("id", id), zap.Error(err))
	}
	if err := b.cache.RemovePending(repository.CollectionMetadata, id); err != nil {
		b.logger.Warn("failed to clear outbox entry", zap.String("id", id), zap.Error(err))
	}
	return true
}

func (b *Bridge) enqueue(item localcache.Item, paired ...string) {
	item.Timestamp = time.Now()
	if err := b.cache.Enqueue(item, paired...); err != nil {
		b.logger.Error("failed to enqueue outbox item", zap.String("key", item.Key()), zap.Error(err))
	}
}

// loadRemote fetches both collections in parallel. ok is true only when
// both are non-empty.
func (b *Bridge) loadRemote(ctx context.Context) ([]domain.Board, []domain.BoardMetadata, bool) {
	if b.remote == nil {
		return nil, nil, false
	}
	var (
		boards   []domain.Board
		metadata []domain.BoardMetadata
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		boards, err = b.boards.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		metadata, err = b.metadata.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		b.logger.Warn("remote load failed, falling back to local cache", zap.Error(err))
		return nil, nil, false
	}
	if len(boards) == 0 || len(metadata) == 0 {
		return nil, nil, false
	}
	return boards, metadata, true
}

var _ usecase.Syncer = (*Bridge)(nil)
