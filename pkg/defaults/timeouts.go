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

package defaults

import "time"

// Test case timeouts enforced by the watchdog.
const (
	// CPPCTestTimeout bounds the whole CPU scaling test, including both
	// settle delays and both counter sampling windows.
	CPPCTestTimeout = 30 * time.Second

	// PCIeTestTimeout bounds the concurrent read of every PCIe sysfs file.
	PCIeTestTimeout = 30 * time.Second

	// NUMATestTimeout bounds the NUMA allocation test.
	NUMATestTimeout = 30 * time.Second
)

// CPPC timing parameters.
const (
	// CPPCScaleUpDelay is how long the busy worker runs before the peak
	// frequency is checked.
	CPPCScaleUpDelay = 1 * time.Second

	// CPPCScaleDownDelay is how long to wait after stopping the busy worker
	// before the idle frequency is checked.
	CPPCScaleDownDelay = 5 * time.Second

	// CPPCSampleWindow is the interval between two feedback counter reads.
	CPPCSampleWindow = 5 * time.Second

	// CPPCBurnerStopTimeout bounds waiting for the busy worker to exit after SIGTERM.
	CPPCBurnerStopTimeout = 5 * time.Second
)

// CPPCTolerance is the relative tolerance between the delivered frequency
// computed from feedback counters and the frequency reported by cpufreq.
const CPPCTolerance = 0.1

// NUMA allocation parameters.
const (
	// NUMAPages is the number of pages allocated on the selected node.
	NUMAPages = 1024

	// NUMAMaxNode is the nodemask size in bits passed to the mempolicy syscalls.
	NUMAMaxNode = 4096
)

// SysfsRoot is the default mount point of sysfs.
const SysfsRoot = "/sys"
