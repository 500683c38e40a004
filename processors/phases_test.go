package processors

import (
	"testing"

	"snowboardAnalyze/core"
)

// trickSignals builds a 50-frame synthetic backside-spin signal set:
// edge change at frame 5, counter-rotation frames 10-22, snap burst peaking at
// frame 23, rising hips 27-29, airborne 30-35, landing absorption 36-40.
func trickSignals() *core.PhaseDetectionSignals {
	n := 50
	s := &core.PhaseDetectionSignals{
		AnkleToHipRatio:       make([]float64, n),
		HipVelocity:           make([]float64, n),
		ChestRotationVelocity: make([]float64, n),
		EdgeTransitions: []core.EdgeTransition{
			{Frame: 5, FromEdge: core.EdgeHeelside, ToEdge: core.EdgeToeside, Smoothness: 80},
		},
	}
	for i := range s.AnkleToHipRatio {
		s.AnkleToHipRatio[i] = 1.0
	}
	for i := 30; i <= 35; i++ {
		s.AnkleToHipRatio[i] = 1.3
	}
	for i := 10; i <= 22; i++ {
		s.ChestRotationVelocity[i] = -5
	}
	s.ChestRotationVelocity[23] = 30
	s.ChestRotationVelocity[24] = 20
	s.ChestRotationVelocity[25] = 10
	s.ChestRotationVelocity[26] = 5
	for i := 27; i <= 29; i++ {
		s.HipVelocity[i] = 2
	}
	for i := 36; i <= 39; i++ {
		s.HipVelocity[i] = -3
	}
	return s
}

func TestClassifyPhasesFullTrick(t *testing.T) {
	e := NewSignalExtractor()
	got := e.ClassifyPhases(trickSignals())

	want := []core.PhaseSegment{
		{Phase: core.PhaseSetupCarve, StartFrame: 5, EndFrame: 9},
		{Phase: core.PhaseWindUp, StartFrame: 10, EndFrame: 22},
		{Phase: core.PhaseSnap, StartFrame: 23, EndFrame: 26},
		{Phase: core.PhaseTakeoff, StartFrame: 27, EndFrame: 29},
		{Phase: core.PhaseAir, StartFrame: 30, EndFrame: 35},
		{Phase: core.PhaseLanding, StartFrame: 36, EndFrame: 40},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClassifyPhasesSegmentsAreOrderedAndDisjoint(t *testing.T) {
	e := NewSignalExtractor()
	got := e.ClassifyPhases(trickSignals())
	for i := range got {
		if got[i].StartFrame > got[i].EndFrame {
			t.Errorf("segment %d has start %d after end %d", i, got[i].StartFrame, got[i].EndFrame)
		}
		if i > 0 && got[i].StartFrame <= got[i-1].EndFrame {
			t.Errorf("segment %d (start %d) overlaps segment %d (end %d)",
				i, got[i].StartFrame, i-1, got[i-1].EndFrame)
		}
	}
}

func TestClassifyPhasesNoAirNoTrick(t *testing.T) {
	e := NewSignalExtractor()
	s := &core.PhaseDetectionSignals{
		AnkleToHipRatio:       []float64{1.0, 1.0, 1.05, 1.0},
		HipVelocity:           []float64{0, 0, 0, 0},
		ChestRotationVelocity: []float64{0, 0, 0, 0},
	}
	if got := e.ClassifyPhases(s); len(got) != 0 {
		t.Errorf("got %d segments without an airborne run, want 0", len(got))
	}
}

func TestClassifyPhasesEmptySignals(t *testing.T) {
	e := NewSignalExtractor()
	if got := e.ClassifyPhases(&core.PhaseDetectionSignals{}); len(got) != 0 {
		t.Errorf("got %d segments for empty signals, want 0", len(got))
	}
}

func TestClassifyPhasesPicksLongestAirborneRun(t *testing.T) {
	e := NewSignalExtractor()
	s := trickSignals()
	// a single-frame detection blip earlier in the run must not be mistaken
	// for the air segment
	s.AnkleToHipRatio[12] = 1.5

	found := false
	for _, seg := range e.ClassifyPhases(s) {
		if seg.Phase != core.PhaseAir {
			continue
		}
		found = true
		if seg.StartFrame != 30 || seg.EndFrame != 35 {
			t.Errorf("air segment = [%d, %d], want [30, 35]", seg.StartFrame, seg.EndFrame)
		}
	}
	if !found {
		t.Fatal("no air segment found")
	}
}
