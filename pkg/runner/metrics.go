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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	testRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lsbug_test_run_duration_seconds",
			Help:    "Time taken to run all selected test cases",
			Buckets: []float64{1, 5, 10, 30, 60, 120},
		},
	)

	testCaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lsbug_test_case_duration_seconds",
			Help:    "Time taken by individual test cases from setup through cleanup",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"test"},
	)

	testCaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lsbug_test_case_total",
			Help: "Total number of executed test cases",
		},
		[]string{"status"}, // pass or fail
	)
)

// WriteMetricsFile writes every registered metric to path in the Prometheus
// text exposition format, for pickup by the node exporter textfile collector.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
