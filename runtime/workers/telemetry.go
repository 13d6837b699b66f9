package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Gauges reports the registry's live counters.
type Gauges func() (connections, rooms int)

// TelemetryWorker periodically logs the relay's vital signs: live
// connections, live rooms, and the process's own CPU/RSS footprint.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	gauges   Gauges
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, gauges Gauges) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, gauges: gauges}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			connections, rooms := w.gauges()

			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Warn("CPU stats unavailable", "error", err)
			}
			var rss uint64
			if mem, err := p.MemoryInfo(); err == nil {
				rss = mem.RSS
			}

			w.log.Info("Relay telemetry",
				"connections", connections,
				"rooms", rooms,
				"cpu_percent", cpu,
				"ram_bytes", rss)
		}
	}
}
