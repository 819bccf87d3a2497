// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sysfs

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

// DefaultAllowList returns the read failures that are expected on healthy
// systems, keyed by file base name.
func DefaultAllowList() map[string]unix.Errno {
	return map[string]unix.Errno{
		"autosuspend_delay_ms": unix.EIO,
	}
}

// Walker reads every readable file below a set of sysfs roots, one goroutine
// per root.
type Walker struct {
	allow    map[string]unix.Errno
	readFile func(path string) ([]byte, error)
	access   func(path string) error
}

// Option configures a Walker.
type Option func(*Walker)

// WithAllowList replaces the default allow-list.
func WithAllowList(allow map[string]unix.Errno) Option {
	return func(w *Walker) {
		w.allow = maps.Clone(allow)
	}
}

// WithReadFunc replaces the function used to read file contents.
func WithReadFunc(fn func(path string) ([]byte, error)) Option {
	return func(w *Walker) {
		w.readFile = fn
	}
}

// NewWalker returns a Walker with the default allow-list.
func NewWalker(opts ...Option) *Walker {
	w := &Walker{
		allow:    DefaultAllowList(),
		readFile: os.ReadFile,
		access: func(path string) error {
			return unix.Access(path, unix.R_OK)
		},
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk reads all files below roots concurrently and returns the number of
// files attempted per root. Failures that are not allow-listed are collected
// into an AggregateIOError wrapped with code AGGREGATE_IO; counts are
// returned either way.
func (w *Walker) Walk(ctx context.Context, roots []string) (map[string]int, error) {
	var (
		mu     sync.Mutex
		counts = make(map[string]int, len(roots))
	)

	failures := make(chan Failure)
	collected := make(map[string]Failure)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range failures {
			collected[f.Path] = f
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		g.Go(func() error {
			start := time.Now()
			defer func() {
				walkRootDuration.WithLabelValues(filepath.Base(root)).Observe(time.Since(start).Seconds())
			}()

			n, err := w.walkRoot(gctx, root, failures)
			mu.Lock()
			counts[root] = n
			mu.Unlock()

			slog.Debug("finished reading sysfs root",
				slog.String("root", root),
				slog.Int("files", n))
			return err
		})
	}

	err := g.Wait()
	close(failures)
	<-done

	if err != nil {
		return counts, errors.Wrap(errors.ErrCodeInternal, "sysfs walk interrupted", err)
	}

	if len(collected) > 0 {
		paths := slices.Sorted(maps.Keys(collected))
		agg := &AggregateIOError{Failures: make([]Failure, 0, len(paths))}
		for _, p := range paths {
			agg.Failures = append(agg.Failures, collected[p])
		}
		return counts, errors.WrapWithContext(errors.ErrCodeAggregateIO,
			"failed to read sysfs files", agg,
			map[string]any{"failures": len(paths)})
	}

	return counts, nil
}

func (w *Walker) walkRoot(ctx context.Context, root string, failures chan<- Failure) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable directories are skipped, like any other walk error
			slog.Debug("skipping unwalkable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && devicePattern.MatchString(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			fi, statErr := os.Stat(path)
			if statErr != nil {
				return nil
			}
			mode = fi.Mode().Type()
		}
		if !mode.IsRegular() {
			return nil
		}

		if w.access(path) != nil {
			return nil
		}

		count++
		filesReadTotal.Inc()
		if _, readErr := w.readFile(path); readErr != nil {
			w.fail(ctx, path, d.Name(), readErr, failures)
		}
		return nil
	})
	return count, err
}

func (w *Walker) fail(ctx context.Context, path, name string, err error, failures chan<- Failure) {
	var errno unix.Errno
	if !stderrors.As(err, &errno) {
		errno = unix.EIO
	}

	allowed := false
	if want, ok := w.allow[name]; ok && want == errno {
		allowed = true
	}
	readErrorsTotal.WithLabelValues(strconv.FormatBool(allowed)).Inc()

	if allowed {
		slog.Debug("ignoring allow-listed read failure",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	slog.Warn("failed to read sysfs file",
		slog.String("path", path),
		slog.String("error", err.Error()))

	select {
	case failures <- Failure{Path: path, Errno: errno}:
	case <-ctx.Done():
	}
}
