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

package cppc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

// Counters is one sample of the feedback_ctrs attribute.
type Counters struct {
	Reference int64
	Delivered int64
}

// ParseCounters parses "ref:<n> del:<n>".
func ParseCounters(s string) (Counters, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Counters{}, errors.Newf(errors.ErrCodeVerification, "malformed feedback counters %q", s)
	}

	ref, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "ref:"), 10, 64)
	if err != nil {
		return Counters{}, errors.Wrap(errors.ErrCodeVerification, fmt.Sprintf("malformed reference counter %q", fields[0]), err)
	}
	del, err := strconv.ParseInt(strings.TrimPrefix(fields[1], "del:"), 10, 64)
	if err != nil {
		return Counters{}, errors.Wrap(errors.ErrCodeVerification, fmt.Sprintf("malformed delivered counter %q", fields[1]), err)
	}
	return Counters{Reference: ref, Delivered: del}, nil
}

// DeliveredFrequency returns the average delivered frequency in kHz between
// two counter samples. scale converts performance units to MHz.
func DeliveredFrequency(before, after Counters, referencePerf int64, scale float64) (float64, error) {
	dRef := after.Reference - before.Reference
	dDel := after.Delivered - before.Delivered
	if dRef == 0 {
		return 0, errors.NewWithContext(errors.ErrCodeVerification,
			"reference counter did not advance",
			map[string]any{"reference": after.Reference})
	}
	return 1000 * scale * float64(referencePerf) * float64(dDel) / float64(dRef), nil
}

// IsClose reports whether a and b differ by at most tol relative to the
// larger magnitude.
func IsClose(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}
