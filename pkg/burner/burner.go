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

package burner

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

// Spin pins the calling OS thread to cpu and keeps it busy until ctx is done.
// It is the body of the hidden burn command. The thread stays locked to the
// calling goroutine, so the runtime discards it when that goroutine exits.
func Spin(ctx context.Context, cpu int) error {
	runtime.LockOSThread()

	if err := Pin(cpu); err != nil {
		return err
	}

	slog.Debug("burning cpu", slog.Int("cpu", cpu), slog.Int("pid", os.Getpid()))

	for i := uint64(0); ; i++ {
		if i&0xfffff == 0 && ctx.Err() != nil {
			return nil
		}
	}
}

// Pin restricts the calling OS thread to cpu. Callers must hold the thread
// with runtime.LockOSThread.
func Pin(cpu int) error {
	if cpu < 0 {
		return errors.Newf(errors.ErrCodeConfig, "invalid cpu %d", cpu)
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.WrapWithContext(errors.ErrCodePrecondition, "failed to set cpu affinity", err,
			map[string]any{"cpu": cpu})
	}
	return nil
}

// Worker is a running busy-loop process.
type Worker interface {
	PID() int
	Stop(timeout time.Duration) error
}

// Spawner starts busy-loop workers.
type Spawner interface {
	Spawn(ctx context.Context, cpu int) (Worker, error)
}

// Launcher spawns workers by re-executing a binary with the burn command.
type Launcher struct {
	// Path of the binary. Defaults to the running executable.
	Path string

	// Args returns the command line selecting the burn command for cpu.
	// Defaults to "burn --cpu <cpu>".
	Args func(cpu int) []string

	// Env is appended to the current environment.
	Env []string
}

// Spawn starts a worker spinning on cpu.
func (l Launcher) Spawn(_ context.Context, cpu int) (Worker, error) {
	path := l.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, "failed to locate executable", err)
		}
		path = exe
	}

	args := []string{"burn", "--cpu", strconv.Itoa(cpu)}
	if l.Args != nil {
		args = l.Args(cpu)
	}

	// not bound to ctx: the worker is stopped with SIGTERM, not SIGKILL
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), l.Env...)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to start cpu burner", err)
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	slog.Debug("started cpu burner", slog.Int("pid", p.PID()), slog.Int("cpu", cpu))
	return p, nil
}

// Process is a worker started by Launcher.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// PID returns the process id of the worker.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Stop sends SIGTERM and waits up to timeout for the worker to exit, then
// kills it. A worker that dies from the SIGTERM is a clean stop.
func (p *Process) Stop(timeout time.Duration) error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return errors.Wrap(errors.ErrCodeInternal, "failed to signal cpu burner", err)
	}

	select {
	case <-p.done:
	case <-time.After(timeout):
		_ = p.cmd.Process.Kill()
		<-p.done
		return errors.Newf(errors.ErrCodeInternal, "cpu burner %d did not exit within %s", p.PID(), timeout)
	}

	if p.err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if stderrors.As(p.err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGTERM {
			return nil
		}
	}
	return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("cpu burner %d failed", p.PID()), p.err)
}
