// Package burner keeps a single CPU busy.
//
// The busy loop runs in a separate process so the watchdog can terminate it
// with a signal. Launcher re-executes the current binary with the hidden burn
// command, which calls Spin. The parent hands the worker's pid to the watchdog
// and calls Stop when the load is no longer needed.
package burner
