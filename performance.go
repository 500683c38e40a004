package main

import (
	"sync"
	"time"
)

// ========== 流水线性能统计 ==========

// stepTiming 单个步骤的累计耗时统计
type stepTiming struct {
	Count   int           `json:"count"`
	Total   time.Duration `json:"-"`
	Min     time.Duration `json:"-"`
	Max     time.Duration `json:"-"`
	AvgMS   int64         `json:"avg_ms"`
	MinMS   int64         `json:"min_ms"`
	MaxMS   int64         `json:"max_ms"`
	TotalMS int64         `json:"total_ms"`
}

// PipelineMetrics 聚合每个分析步骤的耗时, 供 /stats 查询
type PipelineMetrics struct {
	mu    sync.Mutex
	steps map[string]*stepTiming
	jobs  int
}

var pipelineMetrics = &PipelineMetrics{steps: make(map[string]*stepTiming)}

// Observe 记录一次步骤耗时
func (m *PipelineMetrics) Observe(step string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.steps[step]
	if !ok {
		t = &stepTiming{Min: d, Max: d}
		m.steps[step] = t
	}
	t.Count++
	t.Total += d
	if d < t.Min {
		t.Min = d
	}
	if d > t.Max {
		t.Max = d
	}
}

// JobCompleted 记录一次完整分析
func (m *PipelineMetrics) JobCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs++
}

// Snapshot 导出当前统计快照
func (m *PipelineMetrics) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	steps := make(map[string]stepTiming, len(m.steps))
	for name, t := range m.steps {
		copied := *t
		copied.TotalMS = t.Total.Milliseconds()
		copied.MinMS = t.Min.Milliseconds()
		copied.MaxMS = t.Max.Milliseconds()
		if t.Count > 0 {
			copied.AvgMS = (t.Total / time.Duration(t.Count)).Milliseconds()
		}
		steps[name] = copied
	}
	return map[string]any{
		"jobs_completed": m.jobs,
		"steps":          steps,
	}
}

// timeStep 计时辅助: 返回步骤耗时并上报
func timeStep(name string, start time.Time) time.Duration {
	elapsed := time.Since(start)
	pipelineMetrics.Observe(name, elapsed)
	return elapsed
}
