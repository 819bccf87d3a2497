// Package checks assembles the built-in hardware checks into a registry.
//
//	1: Scale CPU up and down.           (cppc)
//	2: Read all PCIe sysfs files.       (pcie)
//	3: Allocate memory in a NUMA node.  (numa)
//
// Each check lives in its own subpackage and implements the setup, run and
// cleanup phases defined by package testcase.
package checks
