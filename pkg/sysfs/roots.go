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

package sysfs

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

var (
	// pciRootPattern matches PCIe host bridge directories such as "pci0000:00".
	pciRootPattern = regexp.MustCompile(`^pci\d+:\d+`)

	// devicePattern matches per-function device directories such as
	// "0000:00:01.0". Their attributes are not read.
	devicePattern = regexp.MustCompile(`^[0-9a-z]+:[0-9a-z]+:[0-9a-z]+\.[0-9a-z]+`)
)

// DevicesDir returns the devices directory of the sysfs mounted at root.
func DevicesDir(root string) string {
	return filepath.Join(root, "devices")
}

// PCIeRoots returns the PCIe root directories under <sysfsRoot>/devices,
// sorted by name.
func PCIeRoots(sysfsRoot string) ([]string, error) {
	dir := DevicesDir(sysfsRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePrecondition, "failed to list "+dir, err)
	}

	roots := make([]string, 0)
	for _, e := range entries {
		if pciRootPattern.MatchString(e.Name()) {
			roots = append(roots, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(roots)
	return roots, nil
}
