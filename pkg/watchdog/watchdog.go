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

package watchdog

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

// Scope is anything the watchdog can bound in time: the whole test run or a
// single test case. A zero Timeout means unlimited.
type Scope interface {
	Name() string
	Timeout() time.Duration
}

// Handle identifies one registration of a Scope. It is returned by Register
// and must be passed back to Unregister.
type Handle struct {
	id      uint64
	name    string
	timeout time.Duration
	scope   Scope
}

// Name returns the name of the registered scope.
func (h Handle) Name() string { return h.name }

// Timeout returns the timeout the scope was registered with.
func (h Handle) Timeout() time.Duration { return h.timeout }

// SignalFunc delivers sig to pid.
type SignalFunc func(pid int, sig syscall.Signal) error

// Option configures a Watchdog.
type Option func(*Watchdog)

// WithSignalFunc replaces the function used to deliver signals.
func WithSignalFunc(fn SignalFunc) Option {
	return func(w *Watchdog) {
		w.signal = fn
	}
}

// WithSignal sets the signal sent by Kill. Default is SIGTERM.
func WithSignal(sig syscall.Signal) Option {
	return func(w *Watchdog) {
		w.sig = sig
	}
}

// WithSelfPID sets the pid at the bottom of the stack. Default is os.Getpid().
func WithSelfPID(pid int) Option {
	return func(w *Watchdog) {
		w.pids = []int{pid}
	}
}

// Watchdog terminates tracked processes when a registered scope outlives its
// timeout. Tracked pids form a stack seeded with the supervising process, so
// workers handed over with AddPID are signalled before their parent.
type Watchdog struct {
	mu     sync.Mutex
	pids   []int
	timers map[uint64]*time.Timer
	live   map[Scope]uint64
	nextID uint64
	signal SignalFunc
	sig    syscall.Signal
}

// New returns a Watchdog tracking the current process.
func New(opts ...Option) *Watchdog {
	w := &Watchdog{
		pids:   []int{os.Getpid()},
		timers: make(map[uint64]*time.Timer),
		live:   make(map[Scope]uint64),
		signal: unix.Kill,
		sig:    unix.SIGTERM,
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Register starts a single-shot timer for scope that calls Kill on expiry.
// Scopes without a timeout get an inert handle and no timer. Registering a
// comparable scope that still has a live timer is a programming error and
// panics.
func (w *Watchdog) Register(scope Scope) Handle {
	h := Handle{
		name:    scope.Name(),
		timeout: scope.Timeout(),
	}
	if h.timeout <= 0 {
		return h
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if reflect.TypeOf(scope).Comparable() {
		if _, ok := w.live[scope]; ok {
			panic(fmt.Sprintf("watchdog: scope %q already has a live timer", h.name))
		}
		h.scope = scope
	}

	w.nextID++
	h.id = w.nextID
	if h.scope != nil {
		w.live[h.scope] = h.id
	}
	w.timers[h.id] = time.AfterFunc(h.timeout, func() {
		slog.Warn("watchdog timer expired, terminating tracked processes",
			slog.String("scope", h.name),
			slog.Duration("timeout", h.timeout))
		w.Kill()
	})

	slog.Debug("watchdog scope registered",
		slog.String("scope", h.name),
		slog.Duration("timeout", h.timeout))
	return h
}

// Unregister cancels the timer behind h. Cancelling a timer that already fired
// is a no-op. Unregistering a handle with no live timer is a programming error
// and panics.
func (w *Watchdog) Unregister(h Handle) {
	if h.timeout <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.timers[h.id]
	if !ok {
		panic(fmt.Sprintf("watchdog: scope %q has no live timer", h.name))
	}
	t.Stop()
	delete(w.timers, h.id)
	if h.scope != nil {
		delete(w.live, h.scope)
	}

	slog.Debug("watchdog scope unregistered", slog.String("scope", h.name))
}

// Kill pops every tracked pid, most recent first, and signals it.
// The stack is empty when Kill returns.
func (w *Watchdog) Kill() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for len(w.pids) > 0 {
		pid := w.pids[len(w.pids)-1]
		w.pids = w.pids[:len(w.pids)-1]

		err := w.signal(pid, w.sig)
		switch {
		case err == nil:
		case stderrors.Is(err, unix.ESRCH):
			slog.Debug("tracked process already exited", slog.Int("pid", pid))
		default:
			slog.Error("failed to signal tracked process",
				slog.Int("pid", pid),
				slog.String("error", err.Error()))
		}
	}
}

// AddPID hands responsibility for pid to the watchdog.
func (w *Watchdog) AddPID(pid int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pids = append(w.pids, pid)
}

// DelPID stops tracking the first occurrence of pid.
func (w *Watchdog) DelPID(pid int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := slices.Index(w.pids, pid)
	if i < 0 {
		return errors.Newf(errors.ErrCodeNotFound, "pid %d is not tracked", pid)
	}
	w.pids = slices.Delete(w.pids, i, i+1)
	return nil
}

// PIDs returns a copy of the tracked pid stack, bottom first.
func (w *Watchdog) PIDs() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.pids)
}

// Active returns the number of live timers.
func (w *Watchdog) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}
