// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Every fatal condition raised by a test case carries one of the codes below,
// so the CLI can choose an exit status and print diagnostic context:
//
//   - CONFIG: malformed range token or flag value, reported before any test runs
//   - PRECONDITION: the host is not in the state a test case requires
//   - VERIFICATION: an observed value did not match the expected one
//   - AGGREGATE_IO: unexpected sysfs read failures collected by the walker
//
// Example usage:
//
//	err := errors.NewWithContext(
//	    errors.ErrCodeVerification,
//	    "CPU is not running at its peak frequency",
//	    map[string]any{
//	        "expected_khz": maxFreq,
//	        "observed_khz": curFreq,
//	    },
//	)
package errors
