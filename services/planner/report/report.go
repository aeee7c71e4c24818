// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report keeps a history of heuristic estimates in BadgerDB.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	storage "github.com/AleutianAI/AleutianPlan/services/planner/storage/badger"
)

var (
	ErrNotFound       = errors.New("report not found")
	ErrMissingProblem = errors.New("report has no problem name")
)

const keyPrefix = "report/"

// Report is one recorded estimate.
type Report struct {
	ID          uuid.UUID      `json:"id"`
	Problem     string         `json:"problem"`
	Fingerprint string         `json:"fingerprint"`
	Kind        heuristic.Kind `json:"kind"`
	State       string         `json:"state"`
	// Value is +Inf when the goal is unreachable; see Unreachable.
	Value     float64   `json:"-"`
	Levels    int       `json:"levels,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Unreachable reports whether the estimate found the goal unreachable.
func (r Report) Unreachable() bool { return math.IsInf(r.Value, 1) }

// MarshalJSON encodes an unreachable value as null with "unreachable": true,
// since JSON has no infinity.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	w := struct {
		plain
		Value       *float64 `json:"value"`
		Unreachable bool     `json:"unreachable,omitempty"`
	}{plain: plain(r)}
	if r.Unreachable() {
		w.Unreachable = true
	} else {
		v := r.Value
		w.Value = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *Report) UnmarshalJSON(data []byte) error {
	type plain Report
	var w struct {
		plain
		Value       *float64 `json:"value"`
		Unreachable bool     `json:"unreachable"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Report(w.plain)
	switch {
	case w.Unreachable:
		r.Value = math.Inf(1)
	case w.Value != nil:
		r.Value = *w.Value
	}
	return nil
}

// FromEstimate builds an unsaved report for an estimate of p.
func FromEstimate(p problem.Problem, est heuristic.Estimate) Report {
	return Report{
		Problem:     p.Name(),
		Fingerprint: p.Fingerprint(),
		Kind:        est.Kind,
		State:       string(est.State),
		Value:       est.Value,
		Levels:      est.Levels,
	}
}

// Store persists reports under report/<problem>/<id>. IDs are UUIDv7, so key
// order is creation order.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *storage.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore wraps an open database.
func NewStore(db *storage.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "report_store")),
		now:    time.Now,
	}
}

func key(problemName string, id uuid.UUID) []byte {
	return []byte(keyPrefix + problemName + "/" + id.String())
}

// Save assigns an ID and timestamp when missing and writes r.
//
// Outputs:
//   - Report: The stored report.
//   - error: ErrMissingProblem, or a storage failure.
func (s *Store) Save(ctx context.Context, r Report) (Report, error) {
	if r.Problem == "" {
		return Report{}, ErrMissingProblem
	}
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return Report{}, fmt.Errorf("generate report id: %w", err)
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return Report{}, fmt.Errorf("encode report: %w", err)
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(key(r.Problem, r.ID), data)
	})
	if err != nil {
		return Report{}, fmt.Errorf("save report: %w", err)
	}

	s.logger.Debug("report saved",
		slog.String("id", r.ID.String()),
		slog.String("problem", r.Problem),
		slog.String("kind", string(r.Kind)),
	)
	return r, nil
}

// Get loads one report.
func (s *Store) Get(ctx context.Context, problemName string, id uuid.UUID) (Report, error) {
	var r Report
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key(problemName, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, problemName, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	return r, err
}

// List returns the reports of problemName, oldest first. An empty name lists
// every problem. limit > 0 keeps only the newest limit reports.
func (s *Store) List(ctx context.Context, problemName string, limit int) ([]Report, error) {
	prefix := keyPrefix
	if problemName != "" {
		prefix += problemName + "/"
	}

	var out []Report
	err := s.db.ScanPrefix(ctx, []byte(prefix), func(k, v []byte) error {
		var r Report
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	slices.SortStableFunc(out, func(a, b Report) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
