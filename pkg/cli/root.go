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

package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/lsbug/pkg/checks"
	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/logging"
	"github.com/NVIDIA/lsbug/pkg/registry"
	"github.com/NVIDIA/lsbug/pkg/runner"
	"github.com/NVIDIA/lsbug/pkg/selector"
	"github.com/NVIDIA/lsbug/pkg/serializer"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

const (
	name           = "lsbug"
	versionDefault = "dev"
)

// Exit codes. A watchdog timeout is reported by death from SIGTERM instead.
const (
	ExitSuccess     = 0 // all selected tests passed
	ExitTestFailure = 1 // a test case failed
	ExitConfigError = 2 // invalid flags or arguments
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"

	// newRegistry builds the registry of test cases; replaced in tests.
	newRegistry = func(cfg checks.Config) *registry.Registry {
		return checks.NewRegistry(cfg)
	}
)

// Execute runs lsbug with the process arguments and exits.
// Only SIGINT is trapped: SIGTERM keeps its default action so the watchdog
// can terminate the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// flags may lower or raise the level once parsed
	logging.SetDefaultStructuredLogger(name, version)

	err := newRootCmd(stdout, stderr).Run(ctx, normalizeArgs(args))
	if err == nil {
		return ExitSuccess
	}

	printError(stderr, err)
	if errors.IsCode(err, errors.ErrCodeConfig) {
		return ExitConfigError
	}
	return ExitTestFailure
}

func newRootCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Run Linux kernel hardware diagnostics",
		UsageText:             name + " [options] [test number or range ...]",
		Version:               fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Writer:                stdout,
		ErrWriter:             stderr,
		Description: `Run numbered diagnostic tests against the running kernel. Without
arguments every test runs in ascending order. Tests are selected by number or
inclusive range (e.g. 1-3) and may be excluded the same way with --exclude.

Each test case has its own timeout and --timeout bounds the whole run. When a
timeout expires every tracked process, lsbug included, is terminated with SIGTERM.

# Examples

List all tests:
  lsbug --list

Run tests 1 to 3 except 2, giving up after a minute:
  lsbug -x 2 -t 60 1-3

Write a YAML report:
  lsbug --output report.yaml --format yaml`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List all test cases and their descriptions",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Turn on debug logging",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.EnvLogLevel),
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"x"},
				Usage:   "Exclude test cases by number or range, can be repeated",
				Sources: cli.EnvVars("LSBUG_EXCLUDE"),
			},
			&cli.FloatFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "Seconds before the whole test run is killed (0 means no limit)",
				Sources: cli.EnvVars("LSBUG_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "sysfs-root",
				Usage:   "Mount point of sysfs",
				Sources: cli.EnvVars("LSBUG_SYSFS_ROOT"),
				Value:   defaults.SysfsRoot,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write a run report to this file (\"-\" for stdout)",
				Sources: cli.EnvVars("LSBUG_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Report format %v", serializer.SupportedFormats()),
				Sources: cli.EnvVars("LSBUG_FORMAT"),
				Value:   string(serializer.FormatJSON),
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "Write Prometheus metrics in text format to this file",
				Sources: cli.EnvVars("LSBUG_METRICS_FILE"),
			},
		},
		Commands: []*cli.Command{
			burnCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if cmd.Bool("debug") {
				level = "debug"
			}
			logging.SetDefaultStructuredLoggerWithLevel(name, version, level)
			return ctx, nil
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return errors.Wrap(errors.ErrCodeConfig, "invalid usage", err)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runTests(ctx, cmd, stdout)
		},
	}
}

func runTests(ctx context.Context, cmd *cli.Command, stdout io.Writer) error {
	reg := newRegistry(checks.Config{
		SysfsRoot: cmd.String("sysfs-root"),
		Out:       stdout,
	})

	if cmd.Bool("list") {
		return reg.List(stdout)
	}
	if reg.IsEmpty() {
		return errors.New(errors.ErrCodeInternal, "no test cases registered")
	}

	timeout, err := parseTimeout(cmd.Float("timeout"))
	if err != nil {
		return err
	}

	format, err := serializer.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// drop the terminator inserted by normalizeArgs if the parser kept it
	tokens := slices.DeleteFunc(cmd.Args().Slice(), func(s string) bool { return s == "--" })
	numbers, err := selector.MergeRanges(cmd.StringSlice("exclude"), tokens, reg.Count())
	if err != nil {
		return err
	}
	slog.Debug("selected test cases", slog.Any("numbers", numbers))

	run := runner.NewTestRun(timeout)
	r := runner.New(reg, watchdog.New(),
		runner.WithOutput(stdout),
		runner.WithVersion(version),
	)
	report, runErr := r.Run(ctx, run, numbers)

	var outErr, metricsErr error
	if path := cmd.String("output"); path != "" {
		outErr = writeReport(ctx, format, path, report)
	}
	if path := cmd.String("metrics-file"); path != "" {
		if metricsErr = runner.WriteMetricsFile(path); metricsErr != nil {
			metricsErr = errors.Wrap(errors.ErrCodeInternal, "failed to write metrics file", metricsErr)
		}
	}

	if runErr != nil {
		return runErr
	}
	return stderrors.Join(outErr, metricsErr)
}

// parseTimeout converts seconds to a duration. Zero means unlimited.
func parseTimeout(seconds float64) (time.Duration, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, errors.NewWithContext(errors.ErrCodeConfig, "timeout must be a non-negative number of seconds",
			map[string]any{"timeout": seconds})
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func writeReport(ctx context.Context, format serializer.Format, path string, report *runner.Report) error {
	w, err := serializer.NewFileWriter(format, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close report", slog.String("path", path), slog.String("error", cerr.Error()))
		}
	}()

	if err := w.Serialize(ctx, report); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to write report", err)
	}
	return nil
}

// printError writes err and any structured context to w.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "- Error: %v\n", err)

	var se *errors.StructuredError
	if !stderrors.As(err, &se) {
		return
	}
	for _, k := range slices.Sorted(maps.Keys(se.Context)) {
		fmt.Fprintf(w, "  %s: %v\n", k, se.Context[k])
	}
}
