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

package topology

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/file"
)

var (
	cpuPattern  = regexp.MustCompile(`^cpu(\d+)$`)
	nodePattern = regexp.MustCompile(`^node(\d+)$`)
)

// CPUDir returns the sysfs directory of cpu.
func CPUDir(sysfsRoot string, cpu int) string {
	return filepath.Join(sysfsRoot, "devices", "system", "cpu", fmt.Sprintf("cpu%d", cpu))
}

// NodeDir returns the sysfs directory of NUMA node.
func NodeDir(sysfsRoot string, node int) string {
	return filepath.Join(sysfsRoot, "devices", "system", "node", fmt.Sprintf("node%d", node))
}

// TailCPU returns the highest-numbered online CPU. Only CPUs that expose an
// "online" attribute reading 1 are considered; whether cpu0 has one depends
// on the kernel configuration.
func TailCPU(sysfsRoot string) (int, error) {
	parser := file.NewParser()
	tail := -1

	err := forEachIndexed(filepath.Join(sysfsRoot, "devices", "system", "cpu"), cpuPattern, func(dir string, cpu int) error {
		online := filepath.Join(dir, "online")
		if _, err := os.Stat(online); err != nil {
			return nil
		}
		v, err := parser.GetValue(online)
		if err != nil {
			return err
		}
		if v == "1" {
			tail = max(tail, cpu)
		}
		return nil
	})
	if err != nil {
		return -1, err
	}

	if tail < 0 {
		return -1, errors.New(errors.ErrCodePrecondition, "no online CPU found")
	}
	slog.Debug("selected tail cpu", slog.Int("cpu", tail))
	return tail, nil
}

// TailNode returns the highest-numbered NUMA node that has local memory
// allocations, judged by the local_node counter in its numastat.
func TailNode(sysfsRoot string) (int, error) {
	parser := file.NewParser()
	tail := -1

	err := forEachIndexed(filepath.Join(sysfsRoot, "devices", "system", "node"), nodePattern, func(dir string, node int) error {
		stat, err := parser.GetMap(filepath.Join(dir, "numastat"))
		if err != nil {
			return err
		}
		local, err := strconv.ParseInt(stat["local_node"], 10, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodePrecondition,
				fmt.Sprintf("invalid local_node in node%d numastat", node), err)
		}
		if local > 0 {
			tail = max(tail, node)
		}
		return nil
	})
	if err != nil {
		return -1, err
	}

	if tail < 0 {
		return -1, errors.New(errors.ErrCodePrecondition, "no NUMA node with memory found")
	}
	slog.Debug("selected tail node", slog.Int("node", tail))
	return tail, nil
}

// forEachIndexed calls fn for every entry of dir whose name matches pattern,
// passing the number captured by the pattern's first group.
func forEachIndexed(dir string, pattern *regexp.Regexp, fn func(path string, index int) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodePrecondition, "failed to list "+dir, err)
	}

	for _, e := range entries {
		m := pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if err := fn(filepath.Join(dir, e.Name()), index); err != nil {
			return err
		}
	}
	return nil
}
