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

package runner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/NVIDIA/lsbug/pkg/header"
)

// Status is the outcome of a test case or a whole run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// TestRun is the whole invocation. Its timeout bounds every selected test
// case together and is independent of the per-case timeouts.
type TestRun struct {
	id      string
	timeout time.Duration
}

// NewTestRun returns a TestRun with a fresh run ID. A zero timeout means unlimited.
func NewTestRun(timeout time.Duration) *TestRun {
	return &TestRun{
		id:      uuid.New().String(),
		timeout: timeout,
	}
}

// ID returns the unique identifier of the run.
func (r *TestRun) ID() string { return r.id }

// Name satisfies watchdog.Scope.
func (r *TestRun) Name() string { return fmt.Sprintf("test run %s", r.id) }

// Timeout satisfies watchdog.Scope.
func (r *TestRun) Timeout() time.Duration { return r.timeout }

// Result captures the outcome of a single test case.
type Result struct {
	Number   int           `json:"number" yaml:"number"`
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a test run.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	RunID     string        `json:"runId" yaml:"runId"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	StartTime time.Time     `json:"startTime" yaml:"startTime"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Status    Status        `json:"status" yaml:"status"`
	Results   []Result      `json:"results" yaml:"results"`
}

// Passed returns the number of passed test cases.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusPass {
			n++
		}
	}
	return n
}

// TableHeader names the columns of the tabular report.
func (r *Report) TableHeader() []string {
	return []string{"#", "Test", "Status", "Duration", "Error"}
}

// TableRows returns one row per executed test case.
func (r *Report) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{
			strconv.Itoa(res.Number),
			res.Name,
			string(res.Status),
			res.Duration.Round(time.Millisecond).String(),
			res.Error,
		})
	}
	return rows
}
