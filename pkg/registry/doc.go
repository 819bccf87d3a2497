// Package registry holds the numbered test cases known to lsbug.
//
// Test numbers are stable identifiers used on the command line for selection
// and exclusion. The registry is an explicit value rather than package state:
// construct one, register cases, and hand it to the selector and runner.
package registry
