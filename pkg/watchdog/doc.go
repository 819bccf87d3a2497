// Package watchdog enforces wall-clock timeouts on test runs and test cases.
//
// A Watchdog keeps a stack of process ids, seeded with the supervising process,
// and one timer per registered scope. When any timer fires, Kill pops the stack
// and sends SIGTERM to each pid, newest first: busy workers handed over with
// AddPID die before the process that spawned them, and the supervising process
// dies last. A timeout is therefore never an error value; it is death by signal.
//
//	wd := watchdog.New()
//	h := wd.Register(tc)
//	// setup, run, cleanup
//	wd.Unregister(h)
//
// The run-level scope and the active test-case scope race independently;
// whichever fires first wins.
package watchdog
