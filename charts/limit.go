// charts/limit.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// defaultLoadLimit computes min(physical_memory/32, 256MiB) per §4.5,
// using the same host-introspection package family (gopsutil) the
// teacher uses for its own system queries.
func defaultLoadLimit() int64 {
	budget := int64(DefaultLoadLimitCap)
	if vm, err := mem.VirtualMemory(); err == nil && vm.Total > 0 {
		fromPhysical := int64(vm.Total / DefaultLoadLimitDivisor)
		if fromPhysical < budget {
			budget = fromPhysical
		}
	}
	if budget < MinLoadLimit {
		budget = MinLoadLimit
	}
	return budget
}
