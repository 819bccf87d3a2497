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

package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/header"
	"github.com/NVIDIA/lsbug/pkg/registry"
	"github.com/NVIDIA/lsbug/pkg/testcase"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

// Runner executes selected test cases one at a time under a watchdog.
type Runner struct {
	registry *registry.Registry
	watchdog *watchdog.Watchdog
	out      io.Writer
	version  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where progress markers are printed. Default is stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithVersion sets the lsbug version recorded in report metadata.
func WithVersion(v string) Option {
	return func(r *Runner) {
		r.version = v
	}
}

// New creates a Runner over reg, supervised by wd.
func New(reg *registry.Registry, wd *watchdog.Watchdog, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		watchdog: wd,
		out:      os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the test cases named by numbers in the given order.
// Numbers without a registered test case are skipped. The first failing phase
// aborts the run: remaining phases and test cases are not executed, and the
// error is returned along with the partial report. Timeouts never surface here;
// the watchdog terminates the process instead.
func (r *Runner) Run(ctx context.Context, run *TestRun, numbers []int) (*Report, error) {
	report := &Report{
		RunID:     run.ID(),
		Timeout:   run.Timeout(),
		StartTime: time.Now(),
		Status:    StatusPass,
		Results:   make([]Result, 0, len(numbers)),
	}
	report.Init(header.KindTestRunReport, r.version)

	slog.Info("starting test run",
		slog.String("run_id", run.ID()),
		slog.Duration("timeout", run.Timeout()),
		slog.Any("tests", numbers))

	h := r.watchdog.Register(run)
	defer func() {
		r.watchdog.Unregister(h)
		report.Duration = time.Since(report.StartTime)
		testRunDuration.Observe(report.Duration.Seconds())
	}()

	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			report.Status = StatusFail
			return report, errors.Wrap(errors.ErrCodeInternal, "test run interrupted", err)
		}

		tc, ok := r.registry.Get(n)
		if !ok {
			slog.Debug("no test case registered, skipping", slog.Int("number", n))
			continue
		}

		res, err := r.runCase(ctx, n, tc)
		report.Results = append(report.Results, res)
		if err != nil {
			report.Status = StatusFail
			return report, err
		}
	}

	slog.Info("test run complete",
		slog.String("run_id", run.ID()),
		slog.Int("passed", report.Passed()))

	return report, nil
}

func (r *Runner) runCase(ctx context.Context, n int, tc *testcase.TestCase) (Result, error) {
	fmt.Fprintf(r.out, "- Start test case: %s\n", tc.Name())

	res := Result{Number: n, Name: tc.Name()}
	start := time.Now()

	h := r.watchdog.Register(tc)
	err := execute(ctx, r.watchdog, tc.Start())
	r.watchdog.Unregister(h)

	res.Duration = time.Since(start)
	testCaseDuration.WithLabelValues(tc.Name()).Observe(res.Duration.Seconds())

	if err != nil {
		res.Status = StatusFail
		res.Error = err.Error()
		testCaseTotal.WithLabelValues(string(StatusFail)).Inc()
		slog.Error("test case failed",
			slog.Int("number", n),
			slog.String("name", tc.Name()),
			slog.String("error", err.Error()))
		return res, fmt.Errorf("test case %d (%s): %w", n, tc.Name(), err)
	}

	res.Status = StatusPass
	testCaseTotal.WithLabelValues(string(StatusPass)).Inc()
	slog.Debug("test case passed",
		slog.Int("number", n),
		slog.Duration("duration", res.Duration))

	fmt.Fprintf(r.out, "- Finish test case: %s\n", tc.Name())
	return res, nil
}

// execute drives one execution through its phases. Cleanup only runs after
// a successful run.
func execute(ctx context.Context, wd *watchdog.Watchdog, e testcase.Execution) error {
	if err := e.Setup(ctx, wd); err != nil {
		return err
	}
	if err := e.Run(ctx, wd); err != nil {
		return err
	}
	return e.Cleanup(ctx, wd)
}
