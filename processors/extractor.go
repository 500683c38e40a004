package processors

import (
	"runtime"
	"sync"

	"snowboardAnalyze/core"
)

// SignalExtractor 姿态信号提取器
type SignalExtractor struct {
	config *SignalConfig
}

// SignalConfig 信号提取配置
type SignalConfig struct {
	EdgeThresholdDeg float64 `json:"edge_threshold_deg"` // 刃角过渡阈值(度)
	SmoothnessWindow int     `json:"smoothness_window"`  // 平滑度评分窗口(帧)
	AnkleSpan        float64 `json:"ankle_span"`         // 假定脚踝水平间距
	ArmDeadband      float64 `json:"arm_deadband"`       // 手臂前后判定死区
	AirborneRatio    float64 `json:"airborne_ratio"`     // 腾空判定比值(下游使用)
	MaxWorkers       int     `json:"max_workers"`        // 每帧信号并行度
}

// NewSignalExtractor 创建信号提取器
func NewSignalExtractor() *SignalExtractor {
	return &SignalExtractor{
		config: &SignalConfig{
			EdgeThresholdDeg: 15.0,
			SmoothnessWindow: 5,
			AnkleSpan:        0.3,
			ArmDeadband:      0.1,
			AirborneRatio:    1.1,
			MaxWorkers:       runtime.NumCPU(),
		},
	}
}

// GetConfig 获取当前配置
func (e *SignalExtractor) GetConfig() *SignalConfig {
	return e.config
}

// UpdateConfig 更新配置
func (e *SignalExtractor) UpdateConfig(key string, value interface{}) {
	switch key {
	case "edge_threshold_deg":
		if v, ok := value.(float64); ok {
			e.config.EdgeThresholdDeg = v
		}
	case "smoothness_window":
		if v, ok := value.(int); ok {
			e.config.SmoothnessWindow = v
		}
	case "ankle_span":
		if v, ok := value.(float64); ok {
			e.config.AnkleSpan = v
		}
	case "arm_deadband":
		if v, ok := value.(float64); ok {
			e.config.ArmDeadband = v
		}
	case "airborne_ratio":
		if v, ok := value.(float64); ok {
			e.config.AirborneRatio = v
		}
	case "max_workers":
		if v, ok := value.(int); ok && v > 0 {
			e.config.MaxWorkers = v
		}
	}
}

// Extract runs the full pipeline over an ordered pose timeline and returns one
// value per frame for every signal plus the edge transition events. The input
// is never mutated; calling Extract twice on the same timeline yields
// identical output.
//
// Per-frame transforms are independent across frames, so they run on a bounded
// worker pool with each worker writing only its own frame slots. The three
// passes that need ordered access to a full series (velocity, acceleration,
// transition scan) run sequentially afterwards.
func (e *SignalExtractor) Extract(timeline []core.PoseFrame) *core.PhaseDetectionSignals {
	n := len(timeline)
	signals := &core.PhaseDetectionSignals{
		EdgeAngle:       make([]float64, n),
		HipHeight:       make([]float64, n),
		AnkleToHipRatio: make([]float64, n),
		ChestRotation:   make([]float64, n),
		ChestDirection:  make([]core.Vector3, n),
		ArmPosition:     make([]core.ArmPosition, n),
		GazeDirection:   make([]core.Vector3, n),
		HeadRotation:    make([]float64, n),
		BodyStackedness: make([]float64, n),
	}

	workers := e.config.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	if n > 0 {
		frameCh := make(chan int, n)
		for i := 0; i < n; i++ {
			frameCh <- i
		}
		close(frameCh)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range frameCh {
					frame := timeline[i]
					signals.EdgeAngle[i] = e.EdgeAngle(frame)
					signals.HipHeight[i] = e.HipHeight(frame)
					signals.AnkleToHipRatio[i] = e.AnkleToHipRatio(frame)
					signals.ChestRotation[i] = e.ChestRotation(frame)
					signals.ChestDirection[i] = e.ChestDirection(frame)
					signals.ArmPosition[i] = e.ArmPosition(frame)
					signals.GazeDirection[i] = e.GazeDirection(frame)
					signals.HeadRotation[i] = e.HeadRotation(frame)
					signals.BodyStackedness[i] = e.BodyStackedness(frame)
				}
			}()
		}
		wg.Wait()
	}

	// Sequential passes over the assembled series.
	signals.HipVelocity = Velocity(signals.HipHeight)
	signals.HipAcceleration = Acceleration(signals.HipHeight)
	signals.ChestRotationVelocity = Velocity(signals.ChestRotation)
	signals.FormVariance = FormVariance(timeline)
	signals.EdgeTransitions = e.DetectEdgeTransitions(signals.EdgeAngle)

	return signals
}
