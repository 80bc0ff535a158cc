// Package diag snapshots host CPU and memory usage for the --diagnostics
// CLI flag, grounded on gopsutil usage in guiperry-HASHER's
// internal/cli/ui (psutil.Percent / psmem.VirtualMemory).
package diag

import (
	psutil "github.com/shirou/gopsutil/v3/cpu"
	psmem "github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time host resource reading.
type Snapshot struct {
	CPUPercent float64
	MemPercent float64
}

// Read samples current CPU and memory utilization. Any sampling error is
// reported as a zero value rather than propagated, since diagnostics are
// advisory and must never fail a programming run.
func Read() Snapshot {
	var snap Snapshot

	if pcts, err := psutil.Percent(0, false); err == nil && len(pcts) > 0 {
		snap.CPUPercent = pcts[0]
	}
	if vm, err := psmem.VirtualMemory(); err == nil {
		snap.MemPercent = vm.UsedPercent
	}
	return snap
}
