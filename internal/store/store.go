// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bondscore/internal/metrics"
	"github.com/tomtom215/bondscore/internal/models"
)

// Store is the full persistence contract of the engine.
type Store interface {
	RelationReader

	CreateRelation(ctx context.Context, p CreateRelationParams) (*models.Relation, error)
	ApplyPoints(ctx context.Context, u PointsUpdate) (*PointsResult, error)
	SetStatus(ctx context.Context, id string, to models.Status, actor, reason string) (*models.Relation, error)
	RefreshDerived(ctx context.Context, id string, stats models.DerivedStats) (*models.Relation, error)
	ExpireRelations(ctx context.Context, now time.Time) ([]models.Relation, error)

	CreateNomination(ctx context.Context, p NominationParams, limits models.Limits) (*models.Nomination, *models.Relation, error)
	AcceptNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error)
	RejectNomination(ctx context.Context, id, responderID string, now time.Time) (*models.Nomination, *models.Relation, error)
	CancelNomination(ctx context.Context, id, nominatorID string, now time.Time) (*models.Nomination, *models.Relation, error)
	ExpireNominations(ctx context.Context, now time.Time) ([]models.Nomination, error)
	GetNomination(ctx context.Context, id string) (*models.Nomination, error)
	ListNominations(ctx context.Context, userID string, role Role) ([]models.Nomination, error)
	FindPendingNomination(ctx context.Context, nominatorID, nomineeID string) (*models.Nomination, error)

	SaveCycleRun(ctx context.Context, run *models.CycleRun) error
	ListCycleRuns(ctx context.Context, limit int) ([]models.CycleRun, error)

	Close() error
}

// RelationReader is the read-only view of relations and their history.
type RelationReader interface {
	GetRelation(ctx context.Context, id string) (*models.Relation, error)
	FindActive(ctx context.Context, pair models.Pair) (*models.Relation, error)
	FindOpen(ctx context.Context, pair models.Pair) (*models.Relation, error)
	ListForUser(ctx context.Context, userID string, statuses ...models.Status) ([]models.Relation, error)
	ListActivity(ctx context.Context, relationID string, since time.Time) ([]models.ActivityLogEntry, error)
	RecentRejections(ctx context.Context, nominatorID string, since time.Time) ([]string, error)
}

var _ Store = (*BadgerStore)(nil)

// lockShards is the number of striped mutexes.
const lockShards = 256

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	cfg    Config
	logger zerolog.Logger
	ownsDB bool

	locks  [lockShards]sync.Mutex
	closed atomic.Bool

	conflicts atomic.Int64
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, logger zerolog.Logger) (*BadgerStore, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites && !cfg.InMemory

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := newStore(db, cfg, logger)
	s.ownsDB = true

	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", opts.SyncWrites).
		Msg("Store opened")
	return s, nil
}

// New wraps an already opened database. The caller keeps ownership of db.
func New(db *badger.DB, cfg Config, logger zerolog.Logger) (*BadgerStore, error) {
	cfg.applyDefaults()
	if cfg.Path == "" {
		cfg.InMemory = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return newStore(db, cfg, logger), nil
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newStore(db *badger.DB, cfg Config, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !s.ownsDB {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	s.logger.Info().Msg("Store closed")
	return nil
}

// Ping reports whether the store can serve reads.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.closed.Load() || s.db.IsClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// DB exposes the underlying database for maintenance tasks.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// Conflicts returns the number of transaction conflicts observed.
func (s *BadgerStore) Conflicts() int64 {
	return s.conflicts.Load()
}

// RelationDuration returns the configured validity window.
func (s *BadgerStore) RelationDuration() time.Duration {
	return s.cfg.RelationDuration
}

func (s *BadgerStore) now() time.Time {
	return s.cfg.Now().UTC()
}

// lock acquires the striped mutexes guarding names, in ascending shard order.
func (s *BadgerStore) lock(names ...string) func() {
	shards := make([]int, 0, len(names))
	seen := make(map[int]bool, len(names))
	for _, n := range names {
		h := fnv.New32a()
		_, _ = h.Write([]byte(n))
		idx := int(h.Sum32() % lockShards)
		if !seen[idx] {
			seen[idx] = true
			shards = append(shards, idx)
		}
	}
	sort.Ints(shards)
	for _, idx := range shards {
		s.locks[idx].Lock()
	}
	return func() {
		for i := len(shards) - 1; i >= 0; i-- {
			s.locks[shards[i]].Unlock()
		}
	}
}

// update runs fn in a read-write transaction while holding the locks for
// names, retrying on conflict. fn may run several times and must not leak
// partial results across attempts.
func (s *BadgerStore) update(ctx context.Context, op string, names []string, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	unlock := s.lock(names...)
	defer unlock()

	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		s.conflicts.Add(1)
		metrics.StoreConflicts.WithLabelValues(op).Inc()
		s.logger.Debug().Str("op", op).Int("attempt", attempt+1).Msg("Transaction conflict, retrying")

		if attempt == s.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * s.cfg.RetryBackoff):
		}
	}

	metrics.StoreRetriesExhausted.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w: %v", op, ErrRetriesExhausted, err)
}

// view runs fn in a read-only transaction.
func (s *BadgerStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// getJSON loads key into v. Missing keys return ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// getString loads a plain string value.
func getString(txn *badger.Txn, key []byte) (string, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(val), nil
}

func deleteKey(txn *badger.Txn, key []byte) error {
	if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// scanKeys returns the keys under prefix, starting at seek when given.
func scanKeys(txn *badger.Txn, prefix, seek []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	if seek == nil {
		seek = prefix
	}
	var keys [][]byte
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// bumpLedger rewrites the per-user conflict anchor.
func bumpLedger(txn *badger.Txn, userID string) error {
	var n int64
	item, err := txn.Get(ledgerKey(userID))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("get ledger: %w", err)
	default:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &n)
		}); err != nil {
			return fmt.Errorf("decode ledger: %w", err)
		}
	}
	return setJSON(txn, ledgerKey(userID), n+1)
}
