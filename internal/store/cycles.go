// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/bondscore/internal/models"
)

// SaveCycleRun records the statistics of one cycle execution.
func (s *BadgerStore) SaveCycleRun(ctx context.Context, run *models.CycleRun) error {
	if run == nil || run.CycleID == "" {
		return fmt.Errorf("cycle run requires a cycle ID")
	}
	return s.update(ctx, "save_cycle_run", []string{"cycle:" + run.CycleID}, func(txn *badger.Txn) error {
		return setJSON(txn, cycleRunKey(run.CycleID, run.StartedAt), run)
	})
}

// ListCycleRuns returns recorded runs, most recent first. A limit <= 0
// returns every run.
func (s *BadgerStore) ListCycleRuns(ctx context.Context, limit int) ([]models.CycleRun, error) {
	var runs []models.CycleRun
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(cycleRunPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var run models.CycleRun
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return fmt.Errorf("decode cycle run: %w", err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
