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

// Package cli implements the lsbug command line.
//
// # Usage
//
//	lsbug [options] [test number or range ...]
//
// Positional tokens select tests by number ("2") or inclusive range ("1-3").
// Without tokens every registered test runs. Negative numbers are accepted as
// tokens and simply match nothing.
//
// # Flags
//
//	--list, -l          List test numbers and descriptions, then exit
//	--exclude, -x       Exclude a number or range, can be repeated
//	--timeout, -t       Seconds before the whole run is killed (0 = no limit)
//	--debug, -d         Debug logging
//	--log-level         Log level (debug, info, warn, error)
//	--sysfs-root        Mount point of sysfs (default: /sys)
//	--output, -o        Write a run report to a file
//	--format, -f        Report format: json, yaml, table (default: json)
//	--metrics-file      Write Prometheus metrics in text format
//
// # Exit Status
//
//	0  all selected tests passed
//	1  a test case failed
//	2  invalid flags or arguments
//
// A test that outlives its timeout does not produce an exit status: the
// watchdog terminates the process with SIGTERM.
//
// # Examples
//
//	lsbug --list
//	lsbug -x 2 -t 60 1-3
//	lsbug --output report.yaml --format yaml
package cli
