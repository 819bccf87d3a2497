// Package numa checks that memory can be bound to a NUMA node.
//
// Setup picks the last node with local memory and saves the thread's memory
// policy. Run binds the thread to that node with MPOL_BIND, faults in 1024
// anonymous pages and requires the node's numa_hit counter to grow by at least
// as much. Cleanup restores the saved policy.
package numa
