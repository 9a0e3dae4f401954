package session

import (
	"log"
	"time"

	"github.com/gimbalcam/streamer/internal/metrics"
	"github.com/gimbalcam/streamer/internal/perf"
)

// WireMetrics mirrors the supervisor's state transitions onto the
// registry's session_state gauge.
func WireMetrics(sup *Supervisor, reg *metrics.Registry) {
	if reg == nil {
		return
	}
	sup.OnStateChange(func(st State) {
		reg.SessionState.Set(float64(st))
	})
}

// RunHealthLoop periodically samples host load/thermal/memory stats via
// internal/perf.Monitor and logs them, stopping when alive closes.
func RunHealthLoop(alive <-chan struct{}, interval time.Duration, reg *metrics.Registry) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	mon := perf.NewMonitor()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-alive:
			return
		case <-ticker.C:
			if err := mon.UpdateStats(); err != nil {
				log.Printf("[Health] stats update failed: %v", err)
				continue
			}
			log.Printf("[Health] load=%.2f temp=%.1fC mem=%.1f%% stressed=%v",
				mon.GetLoadAverage(), mon.GetTemperature(), mon.GetMemoryUsage(), mon.IsUnderStress())
			if reg != nil {
				reg.HostLoadAverage.Set(mon.GetLoadAverage())
				reg.HostTemperatureC.Set(mon.GetTemperature())
				reg.HostMemoryUsedPercent.Set(mon.GetMemoryUsage())
			}
		}
	}
}
