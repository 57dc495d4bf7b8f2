package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// SystemMetrics samples process and host resource usage for the system
// gauges in metrics.go. Sampling runs on a ticker in cmd/main.go's
// collectSystemMetrics, not per request.
type SystemMetrics struct {
	mu            sync.RWMutex
	cpuPercent    float64
	memoryStats   runtime.MemStats
	lastMemUpdate time.Time
}

// NewSystemMetrics creates a new system metrics tracker.
func NewSystemMetrics() *SystemMetrics {
	sm := &SystemMetrics{lastMemUpdate: time.Now()}
	sm.updateCPUMetrics()
	return sm
}

// Update refreshes all system metrics.
func (sm *SystemMetrics) Update() {
	sm.updateMemoryMetrics()
	sm.updateCPUMetrics()
}

func (sm *SystemMetrics) updateMemoryMetrics() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	runtime.ReadMemStats(&sm.memoryStats)
	sm.lastMemUpdate = time.Now()
}

// updateCPUMetrics calculates CPU usage percentage using gopsutil, smoothed
// with an exponential moving average to avoid single-sample spikes.
func (sm *SystemMetrics) updateCPUMetrics() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cpuPercents, err := cpu.Percent(time.Second, false)
	if err != nil || len(cpuPercents) == 0 {
		return
	}
	currentCPU := cpuPercents[0]

	if sm.cpuPercent == 0 {
		sm.cpuPercent = currentCPU
	} else {
		const alpha = 0.3
		sm.cpuPercent = alpha*currentCPU + (1-alpha)*sm.cpuPercent
	}
}

// GetMemoryMB returns heap memory usage in megabytes.
func (sm *SystemMetrics) GetMemoryMB() float64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return float64(sm.memoryStats.HeapAlloc) / 1024 / 1024
}

// GetCPUPercent returns the current smoothed CPU usage percentage.
func (sm *SystemMetrics) GetCPUPercent() float64 {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.cpuPercent
}

// GetGoroutines returns the current goroutine count.
func (sm *SystemMetrics) GetGoroutines() int {
	return runtime.NumGoroutine()
}
