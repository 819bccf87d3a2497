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
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Failure is one file that could not be read.
type Failure struct {
	Path  string     `json:"path" yaml:"path"`
	Errno unix.Errno `json:"errno" yaml:"errno"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Errno.Error())
}

// AggregateIOError lists every failed read of a walk, sorted by path.
type AggregateIOError struct {
	Failures []Failure
}

func (e *AggregateIOError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%d sysfs read(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}
