// Package runner sequences the selected test cases under watchdog supervision.
//
// For every selected number the runner looks up the test case, registers it
// with the watchdog, drives setup, run and cleanup, and unregisters it. The
// whole run is registered as its own scope with an independent timeout.
//
// Each case is bracketed on the output by the markers
// "- Start test case: <name>" and "- Finish test case: <name>". The finish
// marker is only printed when every phase succeeded.
//
// A phase error aborts the run. Both watchdog timers are stopped before Run
// returns so the caller can exit with the error's status.
package runner
