package metrics

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Substrate is the process-wide shared aggregation store backing every
// metric family. It is a sharded table of accumulator entries keyed by
// encoded series keys.
//
// Counter entries stripe their value across a fixed number of cells;
// concurrent workers land on different stripes and update them with a CAS
// loop, so the hot path never takes a lock once a series exists. Reads
// merge all stripes, which makes Add commutative and associative across
// workers and per-key linearizable. Gauge entries hold a single cell with
// last-write-wins semantics.
//
// Capacity is bounded: once maxEntries accumulators exist, updates to new
// series fail with ErrCapacityExhausted and are logged, while existing
// series keep updating.
type Substrate struct {
	shards    []*shard
	shardMask uint64
	stripes   int

	maxEntries int
	entries    atomic.Int64
	bytes      atomic.Int64
	dropped    atomic.Int64

	workerSeq atomic.Int64

	workersMu sync.Mutex
	workers   []*Worker

	buffered  bool
	exhausted atomic.Bool

	logger *slog.Logger
}

// SubstrateConfig configures a Substrate.
type SubstrateConfig struct {
	// MaxEntries bounds the number of accumulator entries. A counter or
	// gauge series consumes one entry; a histogram series consumes one
	// entry per bucket plus two (overflow and sum).
	MaxEntries int

	// Shards is the number of hash partitions. Must be a power of two.
	Shards int

	// Stripes is the number of per-entry counter cells. Must be a power
	// of two. Workers map onto stripes modulo this count.
	Stripes int

	// Buffered enables worker-local delta buffering. Buffered workers
	// accumulate deltas privately and commit them on Flush; reads only
	// observe flushed state.
	Buffered bool
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entryKind uint8

const (
	counterEntry entryKind = iota
	gaugeEntry
)

// entry is one accumulator. Cells hold float64 bit patterns.
type entry struct {
	kind  entryKind
	cells []atomic.Uint64
}

func newEntry(kind entryKind, stripes int) *entry {
	n := stripes
	if kind == gaugeEntry {
		n = 1
	}
	return &entry{kind: kind, cells: make([]atomic.Uint64, n)}
}

// add CAS-adds delta into the given stripe's cell.
func (e *entry) add(stripe int, delta float64) {
	c := &e.cells[stripe]
	for {
		old := c.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if c.CompareAndSwap(old, next) {
			return
		}
	}
}

// value merges all cells into the entry's current value.
func (e *entry) value() float64 {
	if e.kind == gaugeEntry {
		return math.Float64frombits(e.cells[0].Load())
	}
	var sum float64
	for i := range e.cells {
		sum += math.Float64frombits(e.cells[i].Load())
	}
	return sum
}

// approximate per-entry byte cost used for the shared-segment gauges:
// map bucket overhead plus the cell slice header and one word per cell.
const entryOverheadBytes = 96

// NewSubstrate creates a substrate with the given configuration.
func NewSubstrate(cfg SubstrateConfig, logger *slog.Logger) (*Substrate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("substrate capacity must be positive, got %d", cfg.MaxEntries)
	}
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return nil, fmt.Errorf("substrate shard count must be a power of two, got %d", cfg.Shards)
	}
	if cfg.Stripes <= 0 || cfg.Stripes&(cfg.Stripes-1) != 0 {
		return nil, fmt.Errorf("substrate stripe count must be a power of two, got %d", cfg.Stripes)
	}

	s := &Substrate{
		shards:     make([]*shard, cfg.Shards),
		shardMask:  uint64(cfg.Shards - 1),
		stripes:    cfg.Stripes,
		maxEntries: cfg.MaxEntries,
		buffered:   cfg.Buffered,
		logger:     logger.With("component", "metrics.substrate"),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s, nil
}

func (s *Substrate) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)&s.shardMask]
}

// lookupOrCreate returns the entry for key, creating it with the given
// kind if absent. Creation fails with ErrCapacityExhausted once the entry
// bound is reached.
func (s *Substrate) lookupOrCreate(key string, kind entryKind) (*entry, error) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e := sh.entries[key]
	sh.mu.RUnlock()
	if e != nil {
		return e, nil
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e = sh.entries[key]; e != nil {
		return e, nil
	}

	if int(s.entries.Load()) >= s.maxEntries {
		s.dropped.Add(1)
		if s.exhausted.CompareAndSwap(false, true) {
			s.logger.Error("substrate capacity exhausted, new series are being dropped",
				"capacity", s.maxEntries,
				"key", redactKey(key),
			)
		}
		return nil, ErrCapacityExhausted
	}

	e = newEntry(kind, s.stripes)
	sh.entries[key] = e
	s.entries.Add(1)
	s.bytes.Add(int64(entryOverheadBytes + len(key) + 8*len(e.cells)))
	return e, nil
}

// Add adds delta to the counter entry for key, creating it at zero on
// first use. Stripe selects the accumulator cell; callers with a Worker
// handle pass their worker stripe to avoid CAS contention.
func (s *Substrate) Add(key string, stripe int, delta float64) error {
	e, err := s.lookupOrCreate(key, counterEntry)
	if err != nil {
		return err
	}
	e.add(stripe&(s.stripes-1), delta)
	return nil
}

// Set overwrites the gauge entry for key, creating it on first use.
// Concurrent Set calls race with last-write-wins semantics.
func (s *Substrate) Set(key string, value float64) error {
	e, err := s.lookupOrCreate(key, gaugeEntry)
	if err != nil {
		return err
	}
	e.cells[0].Store(math.Float64bits(value))
	return nil
}

// Get returns the merged value for key as of the call.
func (s *Substrate) Get(key string) (float64, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e := sh.entries[key]
	sh.mu.RUnlock()
	if e == nil {
		return 0, false
	}
	return e.value(), true
}

// RangePrefix calls fn for every entry whose key starts with prefix, with
// the entry's merged value as of the visit. fn returning false stops the
// iteration. The view is eventually consistent: an Add committing during
// the range may or may not be observed.
func (s *Substrate) RangePrefix(prefix string, fn func(key string, value float64) bool) {
	type kv struct {
		key string
		val float64
	}
	for _, sh := range s.shards {
		sh.mu.RLock()
		matched := make([]kv, 0, 16)
		for k, e := range sh.entries {
			if strings.HasPrefix(k, prefix) {
				matched = append(matched, kv{k, e.value()})
			}
		}
		sh.mu.RUnlock()

		for _, m := range matched {
			if !fn(m.key, m.val) {
				return
			}
		}
	}
}

// DeletePrefix removes every entry whose key starts with prefix and
// returns the number removed. Capacity freed this way becomes available
// to new series again.
func (s *Substrate) DeletePrefix(prefix string) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.entries {
			if strings.HasPrefix(k, prefix) {
				delete(sh.entries, k)
				s.bytes.Add(-int64(entryOverheadBytes + len(k) + 8*len(e.cells)))
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		s.entries.Add(int64(-removed))
		s.exhausted.Store(false)
	}
	return removed
}

// Len returns the current number of accumulator entries.
func (s *Substrate) Len() int {
	return int(s.entries.Load())
}

// SubstrateStats describes the substrate's occupancy for the
// shared-segment memory gauges and the cardinality audit.
type SubstrateStats struct {
	// Entries is the current number of accumulator entries.
	Entries int

	// MaxEntries is the configured entry bound.
	MaxEntries int

	// AllocatedBytes estimates the memory held by current entries.
	AllocatedBytes int64

	// CapacityBytes estimates the memory the full table would hold.
	CapacityBytes int64

	// DroppedSeries counts updates rejected due to capacity exhaustion.
	DroppedSeries int64
}

// Stats returns current substrate occupancy.
func (s *Substrate) Stats() SubstrateStats {
	perEntry := int64(entryOverheadBytes + 64 + 8*s.stripes)
	return SubstrateStats{
		Entries:        int(s.entries.Load()),
		MaxEntries:     s.maxEntries,
		AllocatedBytes: s.bytes.Load(),
		CapacityBytes:  int64(s.maxEntries) * perEntry,
		DroppedSeries:  s.dropped.Load(),
	}
}

// redactKey makes a substrate key printable in logs.
func redactKey(key string) string {
	key = strings.ReplaceAll(key, labelSep, "|")
	return strings.ReplaceAll(key, componentSep, "#")
}
