package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type Metric int

func (m Metric) String() string {
	switch m {
	case MetricEventProcessed:
		return "events_processed"
	case MetricEventFailed:
		return "events_failed"
	case MetricFileWritten:
		return "files_written"
	case MetricWorkloadRestart:
		return "workload_restarts"
	case MetricStatusTransition:
		return "status_transitions"
	}
	return strconv.Itoa(int(m))
}

const (
	MetricEventProcessed Metric = iota
	MetricEventFailed
	MetricFileWritten
	MetricWorkloadRestart
	MetricStatusTransition
)

const metricSeparator = "|"

// Registry counts per-entity metrics, an entity being a unit or a relation
// endpoint. Counters are shared between the dispatch loop and readers on
// the bus side, hence the concurrent map plus atomics.
type Registry struct {
	counters cmap.ConcurrentMap[string, *int64]
}

func NewRegistry() *Registry {
	return &Registry{counters: cmap.New[*int64]()}
}

func (r *Registry) Inc(entity string, m Metric) {
	key := metricKey(entity, m)
	var zero int64
	r.counters.SetIfAbsent(key, &zero)
	counter, _ := r.counters.Get(key)
	atomic.AddInt64(counter, 1)
}

// Snapshot returns entity -> metric name -> value.
func (r *Registry) Snapshot() map[string]map[string]int64 {
	out := map[string]map[string]int64{}
	for _, key := range r.counters.Keys() {
		counter, _ := r.counters.Get(key)
		if counter == nil {
			continue
		}
		entity, m, err := parseMetricKey(key)
		if err != nil {
			continue
		}
		if out[entity] == nil {
			out[entity] = map[string]int64{}
		}
		out[entity][m.String()] = atomic.LoadInt64(counter)
	}
	return out
}

func metricKey(entity string, m Metric) string {
	return fmt.Sprintf("%s%s%d", entity, metricSeparator, m)
}

func parseMetricKey(key string) (string, Metric, error) {
	parts := strings.Split(key, metricSeparator)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("invalid metric key")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid metric key")
	}
	return parts[0], Metric(m), nil
}
