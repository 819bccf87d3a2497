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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	walkRootDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lsbug_sysfs_walk_duration_seconds",
			Help:    "Time taken to read every file below one sysfs root",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"root"},
	)

	filesReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lsbug_sysfs_files_read_total",
			Help: "Total number of sysfs files read",
		},
	)

	readErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsbug_sysfs_read_errors_total",
			Help: "Total number of failed sysfs reads",
		},
		[]string{"allowed"}, // true or false
	)
)
