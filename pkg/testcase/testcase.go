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

package testcase

import (
	"context"
	"fmt"
	"time"

	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

// Phase is one step of a test case. State is created fresh for every
// execution and shared by its setup, run, and cleanup phases.
type Phase[S any] func(ctx context.Context, wd *watchdog.Watchdog, state *S) error

// Phases groups the steps of a test case. Setup and Cleanup are optional.
type Phases[S any] struct {
	Setup   Phase[S]
	Run     Phase[S]
	Cleanup Phase[S]
}

// Execution is a single pass through a test case with its own state.
type Execution interface {
	Setup(ctx context.Context, wd *watchdog.Watchdog) error
	Run(ctx context.Context, wd *watchdog.Watchdog) error
	Cleanup(ctx context.Context, wd *watchdog.Watchdog) error
}

// TestCase is an immutable test descriptor. It satisfies watchdog.Scope.
type TestCase struct {
	name    string
	timeout time.Duration
	start   func() Execution
}

// Define builds a TestCase from its phases. A zero timeout means unlimited.
// It panics if run is missing or timeout is negative; descriptors are static.
func Define[S any](name string, timeout time.Duration, phases Phases[S]) *TestCase {
	if phases.Run == nil {
		panic(fmt.Sprintf("testcase %q: run phase is required", name))
	}
	if timeout < 0 {
		panic(fmt.Sprintf("testcase %q: negative timeout %s", name, timeout))
	}

	return &TestCase{
		name:    name,
		timeout: timeout,
		start: func() Execution {
			return &execution[S]{phases: phases, state: new(S)}
		},
	}
}

// Name returns the human-readable description of the test case.
func (tc *TestCase) Name() string { return tc.name }

// Timeout returns the wall-clock limit for the whole setup-run-cleanup sequence.
func (tc *TestCase) Timeout() time.Duration { return tc.timeout }

// Start returns a new execution with zeroed state.
func (tc *TestCase) Start() Execution {
	return tc.start()
}

type execution[S any] struct {
	phases Phases[S]
	state  *S
}

func (e *execution[S]) Setup(ctx context.Context, wd *watchdog.Watchdog) error {
	return e.call(ctx, wd, e.phases.Setup)
}

func (e *execution[S]) Run(ctx context.Context, wd *watchdog.Watchdog) error {
	return e.call(ctx, wd, e.phases.Run)
}

func (e *execution[S]) Cleanup(ctx context.Context, wd *watchdog.Watchdog) error {
	return e.call(ctx, wd, e.phases.Cleanup)
}

func (e *execution[S]) call(ctx context.Context, wd *watchdog.Watchdog, p Phase[S]) error {
	if p == nil {
		return nil
	}
	return p(ctx, wd, e.state)
}
