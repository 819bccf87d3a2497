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

import "strings"

// valueFlags take a separate value argument.
var valueFlags = map[string]bool{
	"exclude": true, "x": true,
	"timeout": true, "t": true,
	"output": true, "o": true,
	"format": true, "f": true,
	"log-level":    true,
	"sysfs-root":   true,
	"metrics-file": true,
}

// normalizeArgs moves test selection tokens behind a "--" terminator so
// negative numbers such as "-1" are not parsed as flags. args[0] is the
// program name. Subcommand invocations are returned unchanged.
func normalizeArgs(args []string) []string {
	if len(args) < 2 || args[1] == burnCommand {
		return args
	}

	flags := []string{args[0]}
	var positional []string

	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case isFlag(arg):
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && valueFlags[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// isFlag reports whether arg looks like a flag rather than a selection token.
func isFlag(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	return !isSignedInt(arg) && !isRangeToken(arg)
}

func isSignedInt(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isRangeToken matches tokens like "-3-5" that start with a negative bound.
func isRangeToken(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
