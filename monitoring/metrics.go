// Package monitoring keeps in-process counters for the inference API.
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeSummary MetricType = "summary"
)

const (
	MetricPredictions        = "predictions_total"
	MetricFraudFlagged       = "fraud_flagged_total"
	MetricValidationFailures = "validation_failures_total"
	MetricPredictionErrors   = "prediction_errors_total"
	MetricPredictionLatency  = "prediction_latency_ms"
)

// Summary 摘要统计
type Summary struct {
	Count  int64   `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Latest float64 `json:"latest"`

	sum float64
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.sum += v
	s.Mean = s.sum / float64(s.Count)
	s.Latest = v
}

// Snapshot 指标快照
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Goroutines    int                `json:"goroutines"`
	Counters      map[string]float64 `json:"counters"`
	Summaries     map[string]Summary `json:"summaries"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	mu        sync.RWMutex
	counters  map[string]float64
	summaries map[string]*Summary

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:  make(map[string]float64),
		summaries: make(map[string]*Summary),
		startTime: time.Now(),
	}
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name] += value
}

// Observe 记录一次观测值
func (mc *MetricsCollector) Observe(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	s, ok := mc.summaries[name]
	if !ok {
		s = &Summary{}
		mc.summaries[name] = s
	}
	s.observe(value)
}

// Snapshot 返回当前指标副本
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(mc.startTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Counters:      make(map[string]float64, len(mc.counters)),
		Summaries:     make(map[string]Summary, len(mc.summaries)),
	}
	for name, v := range mc.counters {
		snap.Counters[name] = v
	}
	for name, s := range mc.summaries {
		snap.Summaries[name] = *s
	}
	return snap
}

// ExportPrometheus 导出Prometheus文本格式
func (mc *MetricsCollector) ExportPrometheus() string {
	snap := mc.Snapshot()
	var b strings.Builder

	for _, name := range sortedKeys(snap.Counters) {
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, MetricTypeCounter)
		fmt.Fprintf(&b, "%s %g\n", name, snap.Counters[name])
	}

	names := make([]string, 0, len(snap.Summaries))
	for name := range snap.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := snap.Summaries[name]
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, MetricTypeSummary)
		fmt.Fprintf(&b, "%s_count %d\n", name, s.Count)
		fmt.Fprintf(&b, "%s_sum %g\n", name, s.sum)
	}

	fmt.Fprintf(&b, "# TYPE process_uptime_seconds gauge\nprocess_uptime_seconds %g\n", snap.UptimeSeconds)
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
