// Package pcie reads every attribute below each PCIe root in sysfs and fails
// if any read fails with an error that is not on the walker's allow-list.
package pcie
