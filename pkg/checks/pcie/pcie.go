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

package pcie

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/sysfs"
	"github.com/NVIDIA/lsbug/pkg/testcase"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

// Name is the description shown by --list.
const Name = "Read all PCIe sysfs files."

// Config holds the collaborators of the check.
type Config struct {
	// SysfsRoot is where sysfs is mounted. Defaults to /sys.
	SysfsRoot string

	// Out receives progress lines. Defaults to stdout.
	Out io.Writer

	// Walker reads the device trees. Defaults to sysfs.NewWalker().
	Walker *sysfs.Walker
}

type state struct {
	roots []string
}

// New returns the PCIe sysfs read test case.
func New(cfg Config) *testcase.TestCase {
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = defaults.SysfsRoot
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Walker == nil {
		cfg.Walker = sysfs.NewWalker()
	}

	return testcase.Define(Name, defaults.PCIeTestTimeout, testcase.Phases[state]{
		Setup: func(_ context.Context, _ *watchdog.Watchdog, s *state) error {
			roots, err := sysfs.PCIeRoots(cfg.SysfsRoot)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				return errors.NewWithContext(errors.ErrCodePrecondition, "no PCIe root port found",
					map[string]any{"dir": sysfs.DevicesDir(cfg.SysfsRoot)})
			}
			s.roots = roots
			return nil
		},
		Run: func(ctx context.Context, _ *watchdog.Watchdog, s *state) error {
			for _, root := range s.roots {
				fmt.Fprintf(cfg.Out, "- Read files in %s.\n", root)
			}

			counts, err := cfg.Walker.Walk(ctx, s.roots)
			for _, root := range s.roots {
				fmt.Fprintf(cfg.Out, "- Finish reading %s for %d files.\n", root, counts[root])
			}

			var agg *sysfs.AggregateIOError
			if stderrors.As(err, &agg) {
				for _, f := range agg.Failures {
					fmt.Fprintf(cfg.Out, "- %s\n", f)
				}
			}
			return err
		},
	})
}
