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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/NVIDIA/lsbug/pkg/burner"
	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/file"
	"github.com/NVIDIA/lsbug/pkg/testcase"
	"github.com/NVIDIA/lsbug/pkg/topology"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

// Name is the description shown by --list.
const Name = "Scale CPU up and down."

const (
	requiredDriver   = "cppc_cpufreq"
	requiredGovernor = "schedutil"
)

// attributes that are unreadable or meaningless to dump
var skipDump = map[string]bool{
	"cpuinfo_cur_freq": true,
	"scaling_setspeed": true,
}

// Config holds the collaborators of the check.
type Config struct {
	// SysfsRoot is where sysfs is mounted. Defaults to /sys.
	SysfsRoot string

	// Out receives progress lines. Defaults to stdout.
	Out io.Writer

	// Spawner starts the busy-loop worker. Defaults to burner.Launcher{}.
	Spawner burner.Spawner

	// Sleep waits for the frequency to settle. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type state struct {
	cpu    int
	min    int64
	max    int64
	worker burner.Worker
}

type check struct {
	Config
	parser *file.Parser
}

// New returns the CPPC frequency scaling test case.
func New(cfg Config) *testcase.TestCase {
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = defaults.SysfsRoot
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Spawner == nil {
		cfg.Spawner = burner.Launcher{}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}

	c := &check{Config: cfg, parser: file.NewParser()}
	return testcase.Define(Name, defaults.CPPCTestTimeout, testcase.Phases[state]{
		Setup: c.setup,
		Run:   c.run,
	})
}

func (c *check) hardPath(cpu int) string {
	return filepath.Join(topology.CPUDir(c.SysfsRoot, cpu), "acpi_cppc")
}

func (c *check) softPath(cpu int) string {
	return filepath.Join(topology.CPUDir(c.SysfsRoot, cpu), "cpufreq")
}

func (c *check) setup(_ context.Context, _ *watchdog.Watchdog, _ *state) error {
	soft := c.softPath(0)

	driver, err := c.parser.GetValue(filepath.Join(soft, "scaling_driver"))
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, "failed to read cpufreq driver", err)
	}
	if driver != requiredDriver {
		return errors.NewWithContext(errors.ErrCodePrecondition,
			fmt.Sprintf("cpufreq driver is %q, not %q", driver, requiredDriver),
			map[string]any{"driver": driver})
	}

	governor, err := c.parser.GetValue(filepath.Join(soft, "scaling_governor"))
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, "failed to read cpufreq governor", err)
	}
	if governor != requiredGovernor {
		return errors.NewWithContext(errors.ErrCodePrecondition,
			fmt.Sprintf("cpufreq governor is %q, not %q", governor, requiredGovernor),
			map[string]any{"governor": governor})
	}

	c.dump(c.hardPath(0))
	c.dump(soft)
	return nil
}

// dump prints every readable attribute in dir.
func (c *check) dump(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("cannot list attributes", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || skipDump[e.Name()] {
			continue
		}
		v, err := c.parser.GetValue(filepath.Join(dir, e.Name()))
		if err != nil {
			slog.Debug("cannot read attribute", slog.String("name", e.Name()), slog.String("error", err.Error()))
			continue
		}
		fmt.Fprintf(c.Out, "- %s: %s\n", e.Name(), v)
	}
}

func (c *check) run(ctx context.Context, wd *watchdog.Watchdog, s *state) (err error) {
	s.cpu, err = topology.TailCPU(c.SysfsRoot)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "- Only obtain information from CPU%d.\n", s.cpu)

	if s.min, err = c.expectFrequency(s.cpu, false); err != nil {
		return err
	}

	s.worker, err = c.Spawner.Spawn(ctx, s.cpu)
	if err != nil {
		return err
	}
	wd.AddPID(s.worker.PID())
	defer func() {
		// leave no spinning worker behind when a later step fails
		if err != nil && s.worker != nil {
			_ = c.stopWorker(wd, s)
		}
	}()

	// it takes a while to scale up
	if err = c.Sleep(ctx, defaults.CPPCScaleUpDelay); err != nil {
		return err
	}
	if s.max, err = c.expectFrequency(s.cpu, true); err != nil {
		return err
	}
	if s.max <= s.min {
		return errors.NewWithContext(errors.ErrCodeVerification,
			"maximum frequency is not above minimum frequency",
			map[string]any{"min_khz": s.min, "max_khz": s.max})
	}
	if err = c.expectCounters(ctx, s.cpu, s.max); err != nil {
		return err
	}

	if err = c.stopWorker(wd, s); err != nil {
		return err
	}

	// scaling down takes longer
	if err = c.Sleep(ctx, defaults.CPPCScaleDownDelay); err != nil {
		return err
	}
	if _, err = c.expectFrequency(s.cpu, false); err != nil {
		return err
	}
	return c.expectCounters(ctx, s.cpu, s.min)
}

func (c *check) stopWorker(wd *watchdog.Watchdog, s *state) error {
	pid := s.worker.PID()
	err := s.worker.Stop(defaults.CPPCBurnerStopTimeout)
	s.worker = nil
	if delErr := wd.DelPID(pid); delErr != nil {
		slog.Debug("burner pid was not tracked", slog.Int("pid", pid))
	}
	return err
}

// expectFrequency requires scaling_cur_freq to equal cpuinfo_max_freq (peak)
// or cpuinfo_min_freq (idle) and returns it.
func (c *check) expectFrequency(cpu int, peak bool) (int64, error) {
	soft := c.softPath(cpu)
	bound, label := "min", "idle"
	if peak {
		bound, label = "max", "peak"
	}

	cur, err := c.parser.GetInt(filepath.Join(soft, "scaling_cur_freq"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "failed to read current frequency", err)
	}
	want, err := c.parser.GetInt(filepath.Join(soft, "cpuinfo_"+bound+"_freq"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "failed to read "+bound+" frequency", err)
	}

	if cur != want {
		return 0, errors.NewWithContext(errors.ErrCodeVerification,
			fmt.Sprintf("CPU%d is not %s at %d kHz", cpu, label, want),
			map[string]any{"expected_khz": want, "observed_khz": cur})
	}
	slog.Debug("cpu frequency as expected",
		slog.Int("cpu", cpu),
		slog.String("state", label),
		slog.Int64("khz", cur))
	return cur, nil
}

// expectCounters samples feedback_ctrs over the sample window and requires
// the delivered frequency to be within tolerance of freq.
func (c *check) expectCounters(ctx context.Context, cpu int, freq int64) error {
	hard := c.hardPath(cpu)
	ctrs := filepath.Join(hard, "feedback_ctrs")

	before, err := c.readCounters(ctrs)
	if err != nil {
		return err
	}
	if err := c.Sleep(ctx, defaults.CPPCSampleWindow); err != nil {
		return err
	}
	after, err := c.readCounters(ctrs)
	if err != nil {
		return err
	}

	refPerf, err := c.parser.GetInt(filepath.Join(hard, "reference_perf"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeVerification, "failed to read reference_perf", err)
	}
	scale, err := c.scale(hard)
	if err != nil {
		return err
	}

	delivered, err := DeliveredFrequency(before, after, refPerf, scale)
	if err != nil {
		return err
	}
	if !IsClose(delivered, float64(freq), defaults.CPPCTolerance) {
		return errors.NewWithContext(errors.ErrCodeVerification,
			fmt.Sprintf("CPU%d is not running at %d kHz", cpu, freq),
			map[string]any{
				"expected_khz":   freq,
				"delivered_khz":  strconv.FormatFloat(delivered, 'f', 0, 64),
				"old_ref":        before.Reference,
				"old_del":        before.Delivered,
				"new_ref":        after.Reference,
				"new_del":        after.Delivered,
				"reference_perf": refPerf,
				"scale":          scale,
			})
	}
	return nil
}

func (c *check) readCounters(path string) (Counters, error) {
	v, err := c.parser.GetValue(path)
	if err != nil {
		return Counters{}, errors.Wrap(errors.ErrCodeVerification, "failed to read feedback counters", err)
	}
	return ParseCounters(v)
}

// scale is lowest_freq (MHz) per unit of lowest_perf.
func (c *check) scale(hard string) (float64, error) {
	freq, err := c.parser.GetInt(filepath.Join(hard, "lowest_freq"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "failed to read lowest_freq", err)
	}
	perf, err := c.parser.GetInt(filepath.Join(hard, "lowest_perf"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "failed to read lowest_perf", err)
	}
	if perf == 0 {
		return 0, errors.New(errors.ErrCodeVerification, "lowest_perf is zero")
	}
	return float64(freq) / float64(perf), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
