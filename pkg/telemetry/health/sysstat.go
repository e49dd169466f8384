package health

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

// ConnectionSource supplies current connection counts by state. The
// scrape server's connection tracker implements it.
type ConnectionSource interface {
	Counters() map[string]float64
}

// MemoryHook returns a scrape hook refreshing the memory gauges: the
// substrate's shared segment (allocated and capacity estimates) and the
// process heap attributed to this worker group.
func MemoryHook(sub *metrics.Substrate, gw *metrics.GatewayMetrics) metrics.ScrapeHook {
	pid := strconv.Itoa(os.Getpid())
	return func(ctx context.Context) error {
		stats := sub.Stats()
		if err := gw.SharedMemory.Set(float64(stats.AllocatedBytes), []string{"substrate", "allocated"}); err != nil {
			return err
		}
		if err := gw.SharedMemory.Set(float64(stats.CapacityBytes), []string{"substrate", "capacity"}); err != nil {
			return err
		}

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return gw.WorkerHeap.Set(float64(ms.HeapAlloc), []string{pid})
	}
}

// ConnectionsHook returns a scrape hook refreshing the connection state
// gauge from the source.
func ConnectionsHook(src ConnectionSource, gw *metrics.GatewayMetrics) metrics.ScrapeHook {
	return func(ctx context.Context) error {
		for state, v := range src.Counters() {
			if err := gw.Connections.Set(v, []string{state}); err != nil {
				return err
			}
		}
		return nil
	}
}
