// Package topology locates CPUs and NUMA nodes in sysfs.
//
// Checks that need a single representative CPU or node use the last one: it is
// the least likely to be busy with housekeeping work pinned to low numbers.
package topology
