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

package numa

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/file"
	"github.com/NVIDIA/lsbug/pkg/testcase"
	"github.com/NVIDIA/lsbug/pkg/topology"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

// Name is the description shown by --list.
const Name = "Allocate memory in a NUMA node."

// Config holds the collaborators of the check.
type Config struct {
	// SysfsRoot is where sysfs is mounted. Defaults to /sys.
	SysfsRoot string

	// Out receives progress lines. Defaults to stdout.
	Out io.Writer

	// Policy reads and sets the thread memory policy. Defaults to SyscallMempolicy.
	Policy Mempolicy

	// Allocate faults in the given number of pages. Defaults to TouchPages.
	Allocate func(pages int) error
}

type state struct {
	node   int
	mode   int
	mask   Nodemask
	locked bool
}

type check struct {
	Config
	parser *file.Parser
}

// New returns the NUMA allocation test case.
func New(cfg Config) *testcase.TestCase {
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = defaults.SysfsRoot
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Policy == nil {
		cfg.Policy = SyscallMempolicy{}
	}
	if cfg.Allocate == nil {
		cfg.Allocate = TouchPages
	}

	c := &check{Config: cfg, parser: file.NewParser()}
	return testcase.Define(Name, defaults.NUMATestTimeout, testcase.Phases[state]{
		Setup:   c.setup,
		Run:     c.run,
		Cleanup: c.cleanup,
	})
}

func (c *check) setup(_ context.Context, _ *watchdog.Watchdog, s *state) error {
	node, err := topology.TailNode(c.SysfsRoot)
	if err != nil {
		return err
	}
	s.node = node
	fmt.Fprintf(c.Out, "- Found NUMA node %d to allocate.\n", node)

	// the policy belongs to the thread, so keep this goroutine on it until cleanup
	runtime.LockOSThread()
	s.locked = true

	s.mode, s.mask, err = c.Policy.Get()
	if err != nil {
		// cleanup does not run after a failed setup
		runtime.UnlockOSThread()
		s.locked = false
		return err
	}
	fmt.Fprintf(c.Out, "- Current NUMA policy is %s.\n", PolicyName(s.mode))
	return nil
}

func (c *check) run(_ context.Context, _ *watchdog.Watchdog, s *state) error {
	if err := c.Policy.Set(MPOLBind, NewNodemask(defaults.NUMAMaxNode, s.node)); err != nil {
		return err
	}

	before, err := c.numaHit(s.node)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "- Allocate %d pages on NUMA node %d.\n", defaults.NUMAPages, s.node)
	if err := c.Allocate(defaults.NUMAPages); err != nil {
		return err
	}

	after, err := c.numaHit(s.node)
	if err != nil {
		return err
	}

	delta := after - before
	fmt.Fprintf(c.Out, "- The delta from \"numa_hit\" is %d.\n", delta)
	// debug features such as KASAN add allocations, so only a lower bound holds
	if delta < defaults.NUMAPages {
		return errors.NewWithContext(errors.ErrCodeVerification, "unexpected numa_hit delta",
			map[string]any{"node": s.node, "old": before, "new": after, "expected_min": defaults.NUMAPages})
	}
	return nil
}

func (c *check) cleanup(_ context.Context, _ *watchdog.Watchdog, s *state) error {
	if s.locked {
		defer runtime.UnlockOSThread()
		s.locked = false
	}

	fmt.Fprintf(c.Out, "- Restore NUMA policy to %s.\n", PolicyName(s.mode))
	return c.Policy.Set(s.mode, s.mask)
}

func (c *check) numaHit(node int) (int64, error) {
	path := filepath.Join(topology.NodeDir(c.SysfsRoot, node), "numastat")
	stat, err := c.parser.GetMap(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "failed to read numastat", err)
	}
	hit, err := strconv.ParseInt(stat["numa_hit"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVerification, "invalid numa_hit in "+path, err)
	}
	return hit, nil
}
