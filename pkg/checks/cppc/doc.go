// Package cppc checks CPU frequency scaling driven by ACPI CPPC.
//
// The check requires the cppc_cpufreq driver with the schedutil governor. On
// the last online CPU it expects the idle frequency, starts a pinned busy-loop
// worker and expects the peak frequency, then stops the worker and expects
// idle again. At each level the delivered frequency derived from the CPPC
// feedback counters must agree within 10%:
//
//	khz = 1000 * (lowest_freq / lowest_perf) * reference_perf * Δdelivered / Δreference
package cppc
