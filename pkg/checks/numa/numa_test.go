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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/file"
	"github.com/NVIDIA/lsbug/pkg/topology"
	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

type call struct {
	mode int
	mask Nodemask
}

type fakePolicy struct {
	mode  int
	mask  Nodemask
	calls []call
	err   error
}

func (f *fakePolicy) Get() (int, Nodemask, error) {
	return f.mode, f.mask, f.err
}

func (f *fakePolicy) Set(mode int, mask Nodemask) error {
	f.calls = append(f.calls, call{mode: mode, mask: mask})
	return nil
}

func writeNumastat(t *testing.T, root string, node int, local, hit int64) {
	t.Helper()
	path := filepath.Join(topology.NodeDir(root, node), "numastat")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := fmt.Sprintf("numa_hit %d\nnuma_miss 0\nnuma_foreign 0\ninterleave_hit 0\nlocal_node %d\nother_node 0\n", hit, local)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPolicyNames(t *testing.T) {
	for mode, name := range []string{
		"MPOL_DEFAULT", "MPOL_PREFERRED", "MPOL_BIND",
		"MPOL_INTERLEAVE", "MPOL_LOCAL", "MPOL_PREFERRED_MANY",
	} {
		assert.Equal(t, name, PolicyName(mode))
		got, ok := PolicyMode(name)
		require.True(t, ok)
		assert.Equal(t, mode, got)
	}

	assert.Equal(t, MPOLBind, 2)
	assert.Equal(t, "MPOL_UNKNOWN(42)", PolicyName(42))
	_, ok := PolicyMode("MPOL_WEIGHTED")
	assert.False(t, ok)
}

func TestNodemask(t *testing.T) {
	m := NewNodemask(4096, 0, 3, 64, 130)
	assert.Len(t, m, 64)
	assert.Equal(t, 4096, m.MaxNode())
	assert.Equal(t, uint64(0b1001), m[0])
	assert.Equal(t, uint64(1), m[1])
	assert.Equal(t, uint64(1<<2), m[2])
}

func TestCheck_Lifecycle(t *testing.T) {
	root := t.TempDir()
	writeNumastat(t, root, 0, 500, 100)
	writeNumastat(t, root, 1, 10, 200)
	writeNumastat(t, root, 2, 0, 0)

	policy := &fakePolicy{mode: MPOLInterleave, mask: NewNodemask(64, 0, 1)}
	allocated := 0
	var out bytes.Buffer
	tc := New(Config{
		SysfsRoot: root,
		Out:       &out,
		Policy:    policy,
		Allocate: func(pages int) error {
			allocated = pages
			writeNumastat(t, root, 1, 10, 200+int64(pages)+3)
			return nil
		},
	})
	assert.Equal(t, Name, tc.Name())
	assert.Equal(t, defaults.NUMATestTimeout, tc.Timeout())

	ctx := context.Background()
	wd := watchdog.New()
	exec := tc.Start()
	require.NoError(t, exec.Setup(ctx, wd))
	require.NoError(t, exec.Run(ctx, wd))
	require.NoError(t, exec.Cleanup(ctx, wd))

	assert.Equal(t, defaults.NUMAPages, allocated)
	require.Len(t, policy.calls, 2)
	assert.Equal(t, MPOLBind, policy.calls[0].mode)
	assert.Equal(t, NewNodemask(defaults.NUMAMaxNode, 1), policy.calls[0].mask)
	assert.Equal(t, call{mode: MPOLInterleave, mask: NewNodemask(64, 0, 1)}, policy.calls[1])

	assert.Equal(t, "- Found NUMA node 1 to allocate.\n"+
		"- Current NUMA policy is MPOL_INTERLEAVE.\n"+
		"- Allocate 1024 pages on NUMA node 1.\n"+
		"- The delta from \"numa_hit\" is 1027.\n"+
		"- Restore NUMA policy to MPOL_INTERLEAVE.\n", out.String())
}

func TestCheck_ShortDelta(t *testing.T) {
	root := t.TempDir()
	writeNumastat(t, root, 0, 1, 100)

	tc := New(Config{
		SysfsRoot: root,
		Out:       &bytes.Buffer{},
		Policy:    &fakePolicy{},
		Allocate: func(pages int) error {
			writeNumastat(t, root, 0, 1, 100+int64(pages)-1)
			return nil
		},
	})

	ctx := context.Background()
	wd := watchdog.New()
	exec := tc.Start()
	require.NoError(t, exec.Setup(ctx, wd))
	err := exec.Run(ctx, wd)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVerification))
	require.NoError(t, exec.Cleanup(ctx, wd))
}

func TestCheck_NoMemoryNode(t *testing.T) {
	root := t.TempDir()
	writeNumastat(t, root, 0, 0, 0)

	err := New(Config{SysfsRoot: root, Out: &bytes.Buffer{}, Policy: &fakePolicy{}}).
		Start().Setup(context.Background(), watchdog.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePrecondition))
}

func TestSetup_PolicyErrorReleasesThread(t *testing.T) {
	root := t.TempDir()
	writeNumastat(t, root, 0, 10, 0)

	policy := &fakePolicy{err: errors.New(errors.ErrCodePrecondition, "get_mempolicy failed")}
	c := &check{
		Config: Config{SysfsRoot: root, Out: &bytes.Buffer{}, Policy: policy},
		parser: file.NewParser(),
	}

	// run on a dedicated goroutine so a leaked lock cannot pin the test goroutine
	done := make(chan *state)
	go func() {
		s := &state{}
		err := c.setup(context.Background(), watchdog.New(), s)
		assert.True(t, errors.IsCode(err, errors.ErrCodePrecondition))
		done <- s
	}()

	s := <-done
	assert.False(t, s.locked)
	assert.Zero(t, s.node)
}

func TestSyscallMempolicy_RoundTrip(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var p SyscallMempolicy
	mode, mask, err := p.Get()
	if err != nil {
		t.Skipf("get_mempolicy unavailable: %v", err)
	}
	assert.NotEmpty(t, PolicyName(mode))
	assert.NoError(t, p.Set(mode, mask))
}

func TestTouchPages(t *testing.T) {
	assert.NoError(t, TouchPages(8))
}
