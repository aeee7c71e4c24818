// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch reloads problem definition files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded.
const DefaultDebounce = 200 * time.Millisecond

var ErrNoFiles = errors.New("watch: no files")

// ReloadFunc receives a freshly built problem.
type ReloadFunc func(p *problem.AirCargo, path string)

// ErrorFunc receives load failures. The previous problem stays in effect.
type ErrorFunc func(err error, path string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets the load failure callback.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher reloads definition files.
//
// Description:
//
//	Watches the directories holding the files, so editors that save by
//	rename are followed. Events are debounced per file; each quiet file is
//	parsed with problem.LoadDefinition, built and handed to the reload
//	callback.
//
// Thread Safety: Run must be called at most once. Callbacks run on the Run
// goroutine.
type Watcher struct {
	files    map[string]struct{}
	debounce time.Duration
	onReload ReloadFunc
	onError  ErrorFunc
	logger   *slog.Logger
}

// New creates a watcher for paths.
func New(paths []string, onReload ReloadFunc, opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(paths)),
		debounce: DefaultDebounce,
		onReload: onReload,
		logger:   slog.Default(),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "definition_watcher"))
	return w, nil
}

// Files returns the watched paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run loads every file once, then reloads on change until ctx is done.
//
// Outputs:
//   - error: Non-nil only if the watch could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	for _, f := range w.Files() {
		w.load(f)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			if _, watched := w.files[path]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timerC:
			timer, timerC = nil, nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				w.load(p)
			}
		}
	}
}

func (w *Watcher) load(path string) {
	d, err := problem.LoadDefinition(path)
	if err == nil {
		var p *problem.AirCargo
		if p, err = d.Build(); err == nil {
			w.logger.Info("definition loaded",
				slog.String("path", path),
				slog.String("problem", p.Name()),
				slog.String("fingerprint", p.Fingerprint()),
			)
			if w.onReload != nil {
				w.onReload(p, path)
			}
			return
		}
	}
	w.logger.Warn("definition rejected", slog.String("path", path), slog.String("error", err.Error()))
	if w.onError != nil {
		w.onError(err, path)
	}
}
