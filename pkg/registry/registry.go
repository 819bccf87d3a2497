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

package registry

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/NVIDIA/lsbug/pkg/errors"
	"github.com/NVIDIA/lsbug/pkg/testcase"
)

// Registry maps test numbers to test cases with thread-safe operations.
// It is built once at startup and passed to whoever needs it.
type Registry struct {
	cases map[int]*testcase.TestCase
	mu    sync.RWMutex
}

// NewRegistry creates a new empty Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		cases: make(map[int]*testcase.TestCase),
	}
}

// Register adds tc under number. Returns an error if the number is taken.
func (r *Registry) Register(number int, tc *testcase.TestCase) error {
	if tc == nil {
		return errors.Newf(errors.ErrCodeInternal, "test case %d is nil", number)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.cases[number]; ok {
		return errors.NewWithContext(errors.ErrCodeInternal,
			fmt.Sprintf("test number %d already registered", number),
			map[string]any{"existing": existing.Name(), "new": tc.Name()})
	}

	r.cases[number] = tc
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(number int, tc *testcase.TestCase) {
	if err := r.Register(number, tc); err != nil {
		panic(err)
	}
}

// Get retrieves a test case by number.
func (r *Registry) Get(number int) (*testcase.TestCase, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.cases[number]
	return tc, ok
}

// Numbers returns all registered test numbers in ascending order.
func (r *Registry) Numbers() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nums := make([]int, 0, len(r.cases))
	for n := range r.cases {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// Count returns the number of registered test cases.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}

// IsEmpty returns true if no test cases are registered.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}

// List writes one "<number>: <name>" line per test case, ascending,
// with the number left-aligned in an 8-character column.
func (r *Registry) List(w io.Writer) error {
	for _, n := range r.Numbers() {
		tc, _ := r.Get(n)
		if _, err := fmt.Fprintf(w, "%-8d: %s\n", n, tc.Name()); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to write test list", err)
		}
	}
	return nil
}
