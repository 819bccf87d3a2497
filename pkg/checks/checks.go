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

package checks

import (
	"io"

	"github.com/NVIDIA/lsbug/pkg/checks/cppc"
	"github.com/NVIDIA/lsbug/pkg/checks/numa"
	"github.com/NVIDIA/lsbug/pkg/checks/pcie"
	"github.com/NVIDIA/lsbug/pkg/registry"
)

// Config is shared by every check.
type Config struct {
	// SysfsRoot is where sysfs is mounted. Defaults to /sys.
	SysfsRoot string

	// Out receives progress lines. Defaults to stdout.
	Out io.Writer
}

// NewRegistry returns the registry of all built-in checks. Numbers are stable
// and used on the command line.
func NewRegistry(cfg Config) *registry.Registry {
	reg := registry.NewRegistry()
	reg.MustRegister(1, cppc.New(cppc.Config{SysfsRoot: cfg.SysfsRoot, Out: cfg.Out}))
	reg.MustRegister(2, pcie.New(pcie.Config{SysfsRoot: cfg.SysfsRoot, Out: cfg.Out}))
	reg.MustRegister(3, numa.New(numa.Config{SysfsRoot: cfg.SysfsRoot, Out: cfg.Out}))
	return reg
}
