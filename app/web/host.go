package web

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostStats is load and memory of the host running consumer
type HostStats struct {
	Load1          float64 `json:"load1"`
	Load5          float64 `json:"load5"`
	Load15         float64 `json:"load15"`
	MemTotal       uint64  `json:"mem_total"`
	MemUsedPercent float64 `json:"mem_used_percent"`
}

// SystemHost reads host stats from the system
func SystemHost(ctx context.Context) (HostStats, error) {
	loads, err := load.AvgWithContext(ctx)
	if err != nil {
		return HostStats{}, fmt.Errorf("failed to get load average: %w", err)
	}
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostStats{}, fmt.Errorf("failed to get memory: %w", err)
	}
	return HostStats{Load1: loads.Load1, Load5: loads.Load5, Load15: loads.Load15,
		MemTotal: v.Total, MemUsedPercent: v.UsedPercent}, nil
}
