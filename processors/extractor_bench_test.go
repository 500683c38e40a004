package processors

import (
	"context"
	"testing"
)

func BenchmarkExtract(b *testing.B) {
	timeline, _ := MockPoseService{}.DetectPoses(context.Background(), make([]string, 300))
	e := NewSignalExtractor()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(timeline)
	}
}

func BenchmarkExtractSerial(b *testing.B) {
	timeline, _ := MockPoseService{}.DetectPoses(context.Background(), make([]string, 300))
	e := NewSignalExtractor()
	e.UpdateConfig("max_workers", 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(timeline)
	}
}

func BenchmarkClassifyPhases(b *testing.B) {
	timeline, _ := MockPoseService{}.DetectPoses(context.Background(), make([]string, 300))
	e := NewSignalExtractor()
	signals := e.Extract(timeline)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.ClassifyPhases(signals)
	}
}
