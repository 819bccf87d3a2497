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
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/NVIDIA/lsbug/pkg/defaults"
	"github.com/NVIDIA/lsbug/pkg/errors"
)

// Memory policy modes from include/uapi/linux/mempolicy.h.
const (
	MPOLDefault = iota
	MPOLPreferred
	MPOLBind
	MPOLInterleave
	MPOLLocal
	MPOLPreferredMany
)

var policyNames = []string{
	"MPOL_DEFAULT",
	"MPOL_PREFERRED",
	"MPOL_BIND",
	"MPOL_INTERLEAVE",
	"MPOL_LOCAL",
	"MPOL_PREFERRED_MANY",
}

// PolicyName returns the kernel name of mode.
func PolicyName(mode int) string {
	if mode < 0 || mode >= len(policyNames) {
		return fmt.Sprintf("MPOL_UNKNOWN(%d)", mode)
	}
	return policyNames[mode]
}

// PolicyMode returns the mode for a kernel policy name.
func PolicyMode(name string) (int, bool) {
	for mode, n := range policyNames {
		if n == name {
			return mode, true
		}
	}
	return -1, false
}

// Nodemask is a bitmap of NUMA nodes in the layout the kernel expects.
type Nodemask []uint64

// NewNodemask returns a mask wide enough for maxNode nodes with nodes set.
func NewNodemask(maxNode int, nodes ...int) Nodemask {
	m := make(Nodemask, (maxNode+63)/64)
	for _, n := range nodes {
		m[n/64] |= 1 << (n % 64)
	}
	return m
}

// MaxNode returns the number of nodes the mask can describe.
func (m Nodemask) MaxNode() int {
	return len(m) * 64
}

// Mempolicy reads and sets the memory policy of the calling thread.
type Mempolicy interface {
	Get() (mode int, mask Nodemask, err error)
	Set(mode int, mask Nodemask) error
}

// SyscallMempolicy talks to the kernel through get_mempolicy(2) and
// set_mempolicy(2). The policy is per thread; callers lock the OS thread.
type SyscallMempolicy struct{}

// Get returns the calling thread's policy.
func (SyscallMempolicy) Get() (int, Nodemask, error) {
	var mode int32
	mask := NewNodemask(defaults.NUMAMaxNode)
	_, _, errno := unix.Syscall6(unix.SYS_GET_MEMPOLICY,
		uintptr(unsafe.Pointer(&mode)),
		uintptr(unsafe.Pointer(&mask[0])),
		uintptr(mask.MaxNode()),
		0, 0, 0)
	if errno != 0 {
		return 0, nil, errors.Wrap(errors.ErrCodePrecondition, "get_mempolicy failed", errno)
	}
	return int(mode), mask, nil
}

// Set replaces the calling thread's policy.
func (SyscallMempolicy) Set(mode int, mask Nodemask) error {
	var ptr uintptr
	if len(mask) > 0 {
		ptr = uintptr(unsafe.Pointer(&mask[0]))
	}
	_, _, errno := unix.Syscall(unix.SYS_SET_MEMPOLICY,
		uintptr(mode),
		ptr,
		uintptr(mask.MaxNode()))
	if errno != 0 {
		return errors.WrapWithContext(errors.ErrCodeVerification, "set_mempolicy failed", errno,
			map[string]any{"mode": PolicyName(mode)})
	}
	return nil
}

// TouchPages maps, dirties and unmaps one anonymous page at a time so each
// page is faulted in under the current policy.
func TouchPages(pages int) error {
	size := unix.Getpagesize()
	for i := 0; i < pages; i++ {
		b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			return errors.Wrap(errors.ErrCodeVerification, "mmap failed", err)
		}
		b[0] = '0'
		if err := unix.Munmap(b); err != nil {
			return errors.Wrap(errors.ErrCodeVerification, "munmap failed", err)
		}
	}
	return nil
}
