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

package cppc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/lsbug/pkg/burner"
	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/topology"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

const (
	minKHz = 1000000
	maxKHz = 3000000
)

type fakeWorker struct {
	pid     int
	stopped bool
}

func (w *fakeWorker) PID() int                 { return w.pid }
func (w *fakeWorker) Stop(time.Duration) error { w.stopped = true; return nil }

type fakeSpawner struct {
	cpu    int
	worker *fakeWorker
	err    error
}

func (f *fakeSpawner) Spawn(_ context.Context, cpu int) (burner.Worker, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cpu = cpu
	f.worker = &fakeWorker{pid: 4242}
	return f.worker, nil
}

type machine struct {
	t    *testing.T
	root string
}

func (m *machine) write(cpu int, rel, content string) {
	m.t.Helper()
	path := filepath.Join(topology.CPUDir(m.root, cpu), rel)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(m.t, os.WriteFile(path, []byte(content+"\n"), 0o644))
}

func (m *machine) freq(cpu int, khz int) { m.write(cpu, "cpufreq/scaling_cur_freq", fmt.Sprint(khz)) }

func (m *machine) ctrs(cpu int, ref, del int64) {
	m.write(cpu, "acpi_cppc/feedback_ctrs", fmt.Sprintf("ref:%d del:%d", ref, del))
}

// newMachine builds two CPPC CPUs. scale = 1000/10 = 100 MHz per perf unit and
// reference_perf = 10, so delivered kHz = 1e6 * Δdel/Δref.
func newMachine(t *testing.T) *machine {
	m := &machine{t: t, root: t.TempDir()}
	for cpu := 0; cpu < 2; cpu++ {
		m.write(cpu, "online", "1")
		m.write(cpu, "cpufreq/scaling_driver", "cppc_cpufreq")
		m.write(cpu, "cpufreq/scaling_governor", "schedutil")
		m.write(cpu, "cpufreq/cpuinfo_min_freq", fmt.Sprint(minKHz))
		m.write(cpu, "cpufreq/cpuinfo_max_freq", fmt.Sprint(maxKHz))
		m.write(cpu, "cpufreq/cpuinfo_cur_freq", "secret")
		m.write(cpu, "cpufreq/scaling_setspeed", "<unsupported>")
		m.write(cpu, "acpi_cppc/lowest_freq", "1000")
		m.write(cpu, "acpi_cppc/lowest_perf", "10")
		m.write(cpu, "acpi_cppc/reference_perf", "10")
		m.freq(cpu, minKHz)
		m.ctrs(cpu, 0, 0)
	}
	return m
}

// script returns a Sleep that applies one mutation per call.
func script(steps ...func()) (func(context.Context, time.Duration) error, *[]time.Duration) {
	var slept []time.Duration
	return func(_ context.Context, d time.Duration) error {
		if i := len(slept); i < len(steps) && steps[i] != nil {
			steps[i]()
		}
		slept = append(slept, d)
		return nil
	}, &slept
}

func newWatchdog() *watchdog.Watchdog {
	return watchdog.New(
		watchdog.WithSelfPID(1<<30),
		watchdog.WithSignalFunc(func(int, syscall.Signal) error { return nil }),
	)
}

func TestSetup(t *testing.T) {
	m := newMachine(t)
	var out bytes.Buffer

	tc := New(Config{SysfsRoot: m.root, Out: &out, Spawner: &fakeSpawner{}})
	assert.Equal(t, Name, tc.Name())
	assert.Equal(t, defaults.CPPCTestTimeout, tc.Timeout())

	require.NoError(t, tc.Start().Setup(context.Background(), newWatchdog()))
	assert.Contains(t, out.String(), "- scaling_driver: cppc_cpufreq\n")
	assert.Contains(t, out.String(), "- lowest_perf: 10\n")
	assert.NotContains(t, out.String(), "cpuinfo_cur_freq")
	assert.NotContains(t, out.String(), "scaling_setspeed")
}

func TestSetup_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		key   string
		value string
	}{
		{name: "wrong driver", file: "cpufreq/scaling_driver", key: "driver", value: "acpi-cpufreq"},
		{name: "wrong governor", file: "cpufreq/scaling_governor", key: "governor", value: "performance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t)
			m.write(0, tt.file, tt.value)

			err := New(Config{SysfsRoot: m.root, Out: &bytes.Buffer{}}).Start().Setup(context.Background(), newWatchdog())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodePrecondition))
			assert.Contains(t, err.Error(), tt.value)

			var se *errors.StructuredError
			require.True(t, stderrors.As(err, &se))
			assert.Equal(t, tt.value, se.Context[tt.key])
		})
	}

	err := New(Config{SysfsRoot: t.TempDir(), Out: &bytes.Buffer{}}).Start().Setup(context.Background(), newWatchdog())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePrecondition))
}

func TestRun_ScalesUpAndDown(t *testing.T) {
	m := newMachine(t)
	wd := newWatchdog()
	spawner := &fakeSpawner{}

	sleepFn, slept := script(
		func() { m.freq(1, maxKHz) },     // scale up
		func() { m.ctrs(1, 1000, 3000) }, // sample at peak
		func() { m.freq(1, minKHz) },     // scale down
		func() { m.ctrs(1, 2000, 4050) }, // sample at idle, within 10%
	)

	var out bytes.Buffer
	tc := New(Config{SysfsRoot: m.root, Out: &out, Spawner: spawner, Sleep: sleepFn})
	exec := tc.Start()
	require.NoError(t, exec.Run(context.Background(), wd))

	assert.Equal(t, 1, spawner.cpu, "the last online cpu is used")
	assert.True(t, spawner.worker.stopped)
	assert.Equal(t, []int{1 << 30}, wd.PIDs(), "worker pid is released")
	assert.Equal(t, []time.Duration{
		defaults.CPPCScaleUpDelay,
		defaults.CPPCSampleWindow,
		defaults.CPPCScaleDownDelay,
		defaults.CPPCSampleWindow,
	}, *slept)
	assert.Contains(t, out.String(), "- Only obtain information from CPU1.\n")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name  string
		steps func(m *machine) []func()
		start func(m *machine)
	}{
		{
			name:  "not idle at start",
			start: func(m *machine) { m.freq(1, 2000000) },
		},
		{
			name: "does not scale up",
			steps: func(m *machine) []func() {
				return []func(){nil}
			},
		},
		{
			name: "delivered frequency off at peak",
			steps: func(m *machine) []func() {
				return []func(){
					func() { m.freq(1, maxKHz) },
					func() { m.ctrs(1, 1000, 2000) },
				}
			},
		},
		{
			name: "reference counter stuck",
			steps: func(m *machine) []func() {
				return []func(){
					func() { m.freq(1, maxKHz) },
					nil,
				}
			},
		},
		{
			name: "does not scale down",
			steps: func(m *machine) []func() {
				return []func(){
					func() { m.freq(1, maxKHz) },
					func() { m.ctrs(1, 1000, 3000) },
					nil,
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(t)
			if tt.start != nil {
				tt.start(m)
			}
			var steps []func()
			if tt.steps != nil {
				steps = tt.steps(m)
			}
			sleepFn, _ := script(steps...)
			spawner := &fakeSpawner{}
			wd := newWatchdog()

			err := New(Config{SysfsRoot: m.root, Out: &bytes.Buffer{}, Spawner: spawner, Sleep: sleepFn}).
				Start().Run(context.Background(), wd)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeVerification), "got %v", err)

			if spawner.worker != nil {
				assert.True(t, spawner.worker.stopped, "worker must not be left running")
			}
			assert.Equal(t, []int{1 << 30}, wd.PIDs())
		})
	}
}

func TestRun_SpawnError(t *testing.T) {
	m := newMachine(t)
	boom := errors.New(errors.ErrCodeInternal, "no exec")
	sleepFn, _ := script()

	err := New(Config{SysfsRoot: m.root, Out: &bytes.Buffer{}, Spawner: &fakeSpawner{err: boom}, Sleep: sleepFn}).
		Start().Run(context.Background(), newWatchdog())
	assert.ErrorIs(t, err, boom)
}

func TestRun_Canceled(t *testing.T) {
	m := newMachine(t)
	spawner := &fakeSpawner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(Config{SysfsRoot: m.root, Out: &bytes.Buffer{}, Spawner: spawner}).
		Start().Run(ctx, newWatchdog())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, spawner.worker.stopped)
}
