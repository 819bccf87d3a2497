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

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "no arguments",
			args: []string{"lsbug"},
			want: []string{"lsbug"},
		},
		{
			name: "flags only",
			args: []string{"lsbug", "--list", "-d"},
			want: []string{"lsbug", "--list", "-d"},
		},
		{
			name: "negative number is positional",
			args: []string{"lsbug", "-1"},
			want: []string{"lsbug", "--", "-1"},
		},
		{
			name: "negative range is positional",
			args: []string{"lsbug", "-3-5"},
			want: []string{"lsbug", "--", "-3-5"},
		},
		{
			name: "flags before and after tokens",
			args: []string{"lsbug", "1-3", "-x", "2", "5", "--timeout", "0.5"},
			want: []string{"lsbug", "-x", "2", "--timeout", "0.5", "--", "1-3", "5"},
		},
		{
			name: "value flag consumes negative value",
			args: []string{"lsbug", "-x", "-1", "-t", "-2"},
			want: []string{"lsbug", "-x", "-1", "-t", "-2"},
		},
		{
			name: "inline value",
			args: []string{"lsbug", "--exclude=2", "1"},
			want: []string{"lsbug", "--exclude=2", "--", "1"},
		},
		{
			name: "existing terminator",
			args: []string{"lsbug", "-d", "--", "-5", "--list"},
			want: []string{"lsbug", "-d", "--", "-5", "--list"},
		},
		{
			name: "subcommand untouched",
			args: []string{"lsbug", "burn", "--cpu", "3"},
			want: []string{"lsbug", "burn", "--cpu", "3"},
		},
		{
			name: "trailing value flag without value",
			args: []string{"lsbug", "2", "-x"},
			want: []string{"lsbug", "-x", "--", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.args))
		})
	}
}

func TestIsFlag(t *testing.T) {
	assert.True(t, isFlag("-l"))
	assert.True(t, isFlag("--list"))
	assert.True(t, isFlag("--log-level=debug"))
	assert.False(t, isFlag("-"))
	assert.False(t, isFlag("-1"))
	assert.False(t, isFlag("-10-2"))
	assert.False(t, isFlag("3"))
	assert.False(t, isFlag("abc"))
}
