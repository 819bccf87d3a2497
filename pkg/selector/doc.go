// Package selector turns test selection tokens into an ordered list of test numbers.
//
// Tokens come from the command line: positional tokens select tests and
// --exclude tokens deselect them. A token is either a signed integer or an
// inclusive range:
//
//	selector.MergeRanges([]string{"2-5"}, []string{"1-9"}, reg.Len()) // [1 6 7 8 9]
//	selector.MergeRanges([]string{"2", "4"}, []string{"1-6"}, reg.Len()) // [1 3 5 6]
//
// Malformed tokens fail with an errors.ErrCodeConfig error before any test runs.
package selector
