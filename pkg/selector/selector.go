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

package selector

import (
	"slices"
	"strconv"
	"strings"

	"github.com/NVIDIA/lsbug/pkg/errors"
)

// ParseRange parses an inclusive "<start>-<end>" token.
// A span whose start is greater than its end is valid and empty.
func ParseRange(token string) (start, end int, err error) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, errors.Newf(errors.ErrCodeConfig, "unable to parse the range %q", token)
	}

	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeConfig, "unable to parse the range "+strconv.Quote(token), err)
	}
	end, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeConfig, "unable to parse the range "+strconv.Quote(token), err)
	}

	return start, end, nil
}

// MaxSpan is the largest number of test numbers a single allow range may select.
const MaxSpan = 1 << 16

// MergeRanges returns the ascending, duplicate-free test numbers selected by
// allow minus those selected by deny. An empty allow list selects 1..total.
//
// Each token is either a signed integer ("7", "-1") or an inclusive range
// ("2-5"). The integer rule is tried first, so "-1" is a number and never a
// malformed range. Denying a number that is not selected is a no-op.
// Numbers without a registered test case are kept; the runner skips them.
// An allow range wider than MaxSpan is a CONFIG error. Deny ranges may be of
// any width.
func MergeRanges(deny, allow []string, total int) ([]int, error) {
	set := make(map[int]struct{})
	if len(allow) == 0 {
		for n := 1; n <= total; n++ {
			set[n] = struct{}{}
		}
	}

	for _, token := range allow {
		start, end, err := span(token)
		if err != nil {
			return nil, err
		}
		if start <= end && uint64(end)-uint64(start) >= MaxSpan {
			return nil, errors.NewWithContext(errors.ErrCodeConfig,
				"range "+strconv.Quote(token)+" selects too many test numbers",
				map[string]any{"max": MaxSpan})
		}
		for n := start; n <= end; n++ {
			set[n] = struct{}{}
			if n == end {
				break
			}
		}
	}

	for _, token := range deny {
		start, end, err := span(token)
		if err != nil {
			return nil, err
		}
		for n := range set {
			if n >= start && n <= end {
				delete(set, n)
			}
		}
	}

	nums := make([]int, 0, len(set))
	for n := range set {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums, nil
}

// span classifies token and returns the inclusive bounds it denotes.
func span(token string) (start, end int, err error) {
	if isSignedInt(token) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeConfig, "test number out of range "+strconv.Quote(token), err)
		}
		return n, n, nil
	}
	return ParseRange(token)
}

// isSignedInt reports whether token is ASCII digits with one optional leading '-'.
func isSignedInt(token string) bool {
	digits := strings.TrimPrefix(token, "-")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
