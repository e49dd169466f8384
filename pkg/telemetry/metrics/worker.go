package metrics

import (
	"context"
	"sync"
	"time"
)

// Worker is a per-worker handle onto the substrate. Each request-handling
// worker registers one at startup and passes it into counter and histogram
// updates; the worker's stripe keeps concurrent updates of the same series
// on separate accumulator cells.
//
// When the substrate is buffered, a Worker additionally accumulates deltas
// in a private map and commits them on Flush, so the per-request path is a
// map update with no shared-memory traffic at all. A Worker must not be
// shared between goroutines; its lock exists only to coordinate with the
// background flusher.
type Worker struct {
	stripe int
	sub    *Substrate

	// buffered state; deltas is nil for write-through workers. mu only
	// contends between the owning worker and the background flusher.
	mu     sync.Mutex
	deltas map[string]float64
}

// RegisterWorker allocates a Worker handle. Worker stripes are assigned
// round-robin and wrap modulo the substrate's stripe count.
func (s *Substrate) RegisterWorker() *Worker {
	w := &Worker{
		stripe: int(s.workerSeq.Add(1)-1) & (s.stripes - 1),
		sub:    s,
	}
	if s.buffered {
		w.deltas = make(map[string]float64)
	}

	s.workersMu.Lock()
	s.workers = append(s.workers, w)
	s.workersMu.Unlock()
	return w
}

// Add adds delta to the counter entry for key. Buffered workers defer the
// substrate write to the next Flush; write-through workers commit
// immediately and report capacity errors to the caller.
func (w *Worker) Add(key string, delta float64) error {
	if w.deltas != nil {
		w.mu.Lock()
		w.deltas[key] += delta
		w.mu.Unlock()
		return nil
	}
	return w.sub.Add(key, w.stripe, delta)
}

// Flush commits buffered deltas into the substrate. Deltas rejected for
// capacity are dropped and counted; the substrate logs the exhaustion.
func (w *Worker) Flush() {
	if w.deltas == nil {
		return
	}

	w.mu.Lock()
	pending := w.deltas
	w.deltas = make(map[string]float64, len(pending))
	w.mu.Unlock()

	for key, delta := range pending {
		// Errors are already counted and logged by the substrate.
		_ = w.sub.Add(key, w.stripe, delta)
	}
}

// FlushWorkers flushes every registered worker's buffered deltas. It is
// called on the scrape path before serialization so a scrape observes all
// updates recorded before it started.
func (s *Substrate) FlushWorkers() {
	s.workersMu.Lock()
	workers := make([]*Worker, len(s.workers))
	copy(workers, s.workers)
	s.workersMu.Unlock()

	for _, w := range workers {
		w.Flush()
	}
}

// RunFlusher periodically flushes all worker buffers until the context is
// cancelled. It is a no-op loop for write-through substrates but harmless
// to run either way.
func (s *Substrate) RunFlusher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushWorkers()
			return
		case <-ticker.C:
			s.FlushWorkers()
		}
	}
}
