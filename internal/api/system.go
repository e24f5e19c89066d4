package api

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

type memoryInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

type diskInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

type systemResponse struct {
	CPUPercent    float64    `json:"cpu_percent"`
	Memory        memoryInfo `json:"memory"`
	Disk          diskInfo   `json:"disk"`
	UptimeSeconds uint64     `json:"uptime_seconds"`
	Timestamp     time.Time  `json:"timestamp"`
}

// handleSystem reports host resource usage alongside the deployment state,
// so an operator can tell an application failure from a starved instance.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := systemResponse{Timestamp: time.Now().UTC()}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	} else if err != nil {
		s.log.Debug("cpu sample failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.Memory = memoryInfo{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		s.log.Debug("memory sample failed", zap.Error(err))
	}

	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		resp.Disk = diskInfo{Total: usage.Total, Used: usage.Used, UsedPercent: usage.UsedPercent}
	} else {
		s.log.Debug("disk sample failed", zap.Error(err))
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		resp.UptimeSeconds = uptime
	} else {
		s.log.Debug("uptime sample failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, resp)
}
