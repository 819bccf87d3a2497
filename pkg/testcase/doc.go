// Package testcase defines the setup/run/cleanup contract shared by every check.
//
// A check declares its cross-phase state as a plain struct and binds its phases
// with Define:
//
//	type state struct{ cpu int }
//
//	var tc = testcase.Define("Scale CPU up and down.", 30*time.Second, testcase.Phases[state]{
//		Setup: setup,
//		Run:   run,
//	})
//
// Each call to Start allocates a new zero state, so nothing leaks from one
// execution into the next.
package testcase
