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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/lsbug/pkg/watchdog"
)

type counter struct {
	calls []string
	value int
}

func TestDefine(t *testing.T) {
	tc := Define("noop", 5*time.Second, Phases[counter]{
		Run: func(context.Context, *watchdog.Watchdog, *counter) error { return nil },
	})

	assert.Equal(t, "noop", tc.Name())
	assert.Equal(t, 5*time.Second, tc.Timeout())

	var _ watchdog.Scope = tc
}

func TestDefine_Panics(t *testing.T) {
	run := func(context.Context, *watchdog.Watchdog, *counter) error { return nil }

	assert.PanicsWithValue(t, `testcase "no run": run phase is required`, func() {
		Define("no run", time.Second, Phases[counter]{})
	})
	assert.Panics(t, func() {
		Define("negative", -time.Second, Phases[counter]{Run: run})
	})
	assert.NotPanics(t, func() {
		Define("unlimited", 0, Phases[counter]{Run: run})
	})
}

func TestExecution_PhasesShareState(t *testing.T) {
	var seen []*counter
	record := func(name string) Phase[counter] {
		return func(_ context.Context, _ *watchdog.Watchdog, s *counter) error {
			s.calls = append(s.calls, name)
			s.value++
			if name == "cleanup" {
				seen = append(seen, s)
			}
			return nil
		}
	}

	tc := Define("stateful", 0, Phases[counter]{
		Setup:   record("setup"),
		Run:     record("run"),
		Cleanup: record("cleanup"),
	})

	ctx := context.Background()
	wd := watchdog.New()
	for i := 0; i < 2; i++ {
		exec := tc.Start()
		require.NoError(t, exec.Setup(ctx, wd))
		require.NoError(t, exec.Run(ctx, wd))
		require.NoError(t, exec.Cleanup(ctx, wd))
	}

	require.Len(t, seen, 2)
	for _, s := range seen {
		assert.Equal(t, []string{"setup", "run", "cleanup"}, s.calls)
		assert.Equal(t, 3, s.value)
	}
	assert.NotSame(t, seen[0], seen[1])
}

func TestExecution_OptionalPhases(t *testing.T) {
	ran := false
	tc := Define("run only", 0, Phases[counter]{
		Run: func(context.Context, *watchdog.Watchdog, *counter) error {
			ran = true
			return nil
		},
	})

	ctx := context.Background()
	wd := watchdog.New()
	exec := tc.Start()
	assert.NoError(t, exec.Setup(ctx, wd))
	assert.NoError(t, exec.Run(ctx, wd))
	assert.NoError(t, exec.Cleanup(ctx, wd))
	assert.True(t, ran)
}

func TestExecution_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	tc := Define("failing", 0, Phases[counter]{
		Setup: func(context.Context, *watchdog.Watchdog, *counter) error { return boom },
		Run:   func(context.Context, *watchdog.Watchdog, *counter) error { return nil },
	})

	err := tc.Start().Setup(context.Background(), watchdog.New())
	assert.ErrorIs(t, err, boom)
}
