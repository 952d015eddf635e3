// Package metrics provides a small in-memory metrics registry exposed over
// the /metrics endpoint.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metric represents a single counter or gauge with its metadata.
type Metric struct {
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Labels      map[string]string `json:"labels,omitempty"`
	Description string            `json:"description,omitempty"`
	LastUpdate  time.Time         `json:"last_update"`
}

// TimerMetric stores timing information.
type TimerMetric struct {
	Count   int64   `json:"count"`
	Sum     float64 `json:"sum_ms"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	Average float64 `json:"avg_ms"`
}

// Registry manages all metrics in memory.
type Registry struct {
	mu        sync.RWMutex
	counters  map[string]*Metric
	timers    map[string]*TimerMetric
	startTime time.Time
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Metric),
		timers:    make(map[string]*TimerMetric),
		startTime: time.Now(),
	}
}

var globalRegistry = NewRegistry()

// IncrementCounter increments a counter metric on the global registry.
func IncrementCounter(name string, labels map[string]string, description string) {
	globalRegistry.AddToCounter(name, 1, labels, description)
}

// AddToCounter adds a value to a counter metric on the global registry.
func AddToCounter(name string, value float64, labels map[string]string, description string) {
	globalRegistry.AddToCounter(name, value, labels, description)
}

// RecordTimer records a duration sample on the global registry.
func RecordTimer(name string, duration time.Duration, labels map[string]string, description string) {
	globalRegistry.RecordTimer(name, duration, labels, description)
}

// GetAllMetrics returns a snapshot of the global registry.
func GetAllMetrics() map[string]interface{} {
	return globalRegistry.GetAllMetrics()
}

func (r *Registry) AddToCounter(name string, value float64, labels map[string]string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(name, labels)
	counter, exists := r.counters[key]
	if !exists {
		counter = &Metric{
			Name:        name,
			Labels:      copyLabels(labels),
			Description: description,
		}
		r.counters[key] = counter
	}
	counter.Value += value
	counter.LastUpdate = time.Now()
}

func (r *Registry) RecordTimer(name string, duration time.Duration, labels map[string]string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(name, labels)
	timer, exists := r.timers[key]
	ms := float64(duration.Milliseconds())
	if !exists {
		timer = &TimerMetric{Min: ms, Max: ms}
		r.timers[key] = timer
	}
	timer.Count++
	timer.Sum += ms
	if ms < timer.Min {
		timer.Min = ms
	}
	if ms > timer.Max {
		timer.Max = ms
	}
	timer.Average = timer.Sum / float64(timer.Count)
}

func (r *Registry) GetAllMetrics() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counters := make(map[string]*Metric, len(r.counters))
	for k, v := range r.counters {
		copied := *v
		copied.Labels = copyLabels(v.Labels)
		counters[k] = &copied
	}
	timers := make(map[string]*TimerMetric, len(r.timers))
	for k, v := range r.timers {
		copied := *v
		timers[k] = &copied
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(r.startTime).Seconds(),
		"counters":       counters,
		"timers":         timers,
	}
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := name
	for _, k := range keys {
		key += fmt.Sprintf(",%s=%s", k, labels[k])
	}
	return key
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return copied
}
