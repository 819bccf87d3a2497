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

// Package file reads kernel attribute files.
//
// Sysfs and procfs attributes are small text files holding a single value
// ("cppc_cpufreq\n"), a list of lines, or whitespace separated key/value pairs
// (numastat). Parser covers the three shapes:
//
//	p := file.NewParser()
//	driver, err := p.GetValue("/sys/devices/system/cpu/cpu0/cpufreq/scaling_driver")
//	freq, err := p.GetInt("/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq")
//	stats, err := p.GetMap("/sys/devices/system/node/node0/numastat")
//
// Files containing bytes that are not valid UTF-8 are rejected; use os.ReadFile
// directly for binary attributes such as PCI config space.
package file
