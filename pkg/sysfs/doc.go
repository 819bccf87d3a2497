// Package sysfs reads sysfs device trees concurrently.
//
// PCIeRoots lists the host bridge directories under <sysfs>/devices. A Walker
// then starts one goroutine per root and reads every file the process may
// read, descending into subdirectories except per-function device directories
// (names like "0000:00:01.0"). Symlinked directories are never followed;
// symlinked regular files are read. Contents are read as bytes and discarded:
// the point is to exercise each attribute's show routine in the kernel.
//
// Read failures are sent to a single aggregator goroutine keyed by full path.
// Failures on the allow-list (by default autosuspend_delay_ms returning EIO)
// are dropped. Anything left is returned as an *AggregateIOError wrapped in a
// StructuredError with code AGGREGATE_IO:
//
//	counts, err := sysfs.NewWalker().Walk(ctx, roots)
//	var agg *sysfs.AggregateIOError
//	if errors.As(err, &agg) {
//		for _, f := range agg.Failures {
//			fmt.Println(f)
//		}
//	}
package sysfs
