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

// Package defaults provides centralized configuration constants for lsbug.
//
// This package defines watchdog timeouts for each test case, settle and sampling
// windows for the CPU scaling check, and allocation sizes for the NUMA check.
// Centralizing these values keeps the checks and their tests consistent.
//
// # Usage
//
//	tc := testcase.Define("Scale CPU up and down.", defaults.CPPCTestTimeout, phases)
//
// # Timeout Guidelines
//
// A test case timeout must exceed the sum of the sleeps and sampling windows the
// test performs; otherwise the watchdog terminates a healthy run.
package defaults
