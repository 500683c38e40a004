package processors

import (
	"math"
	"testing"

	"snowboardAnalyze/core"
)

func makeFrame(number int, joints ...core.Joint3D) core.PoseFrame {
	return core.PoseFrame{FrameNumber: number, Joints: joints}
}

func joint(name string, x, y, z float64) core.Joint3D {
	return core.Joint3D{Name: name, X: x, Y: y, Z: z, Confidence: 0.9}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEdgeAngle(t *testing.T) {
	e := NewSignalExtractor()

	// left ankle 0.3 below right, span 0.3 → atan2(0.3, 0.3) = 45°
	frame := makeFrame(0,
		joint(JointLeftAnkle, 0.4, 0.9, 0),
		joint(JointRightAnkle, 0.6, 0.6, 0),
	)
	got := e.EdgeAngle(frame)
	if !almostEqual(got, 45.0) {
		t.Errorf("EdgeAngle = %v, want 45", got)
	}

	// symmetric case flips the sign
	frame = makeFrame(0,
		joint(JointLeftAnkle, 0.4, 0.6, 0),
		joint(JointRightAnkle, 0.6, 0.9, 0),
	)
	if got := e.EdgeAngle(frame); !almostEqual(got, -45.0) {
		t.Errorf("EdgeAngle = %v, want -45", got)
	}
}

func TestEdgeAngleMissingAnkle(t *testing.T) {
	e := NewSignalExtractor()
	frame := makeFrame(0, joint(JointLeftAnkle, 0.4, 0.9, 0))
	if got := e.EdgeAngle(frame); got != 0 {
		t.Errorf("EdgeAngle with missing ankle = %v, want 0", got)
	}
	if got := e.EdgeAngle(makeFrame(0)); got != 0 {
		t.Errorf("EdgeAngle on empty frame = %v, want 0", got)
	}
}

func TestHipHeightAndRatio(t *testing.T) {
	e := NewSignalExtractor()
	frame := makeFrame(0,
		joint(JointLeftHip, 0.45, 0.5, 0),
		joint(JointRightHip, 0.55, 0.6, 0),
		joint(JointLeftAnkle, 0.45, 0.9, 0),
		joint(JointRightAnkle, 0.55, 0.9, 0),
	)
	if got := e.HipHeight(frame); !almostEqual(got, 0.55) {
		t.Errorf("HipHeight = %v, want 0.55", got)
	}
	want := 0.9 / 0.55
	if got := e.AnkleToHipRatio(frame); !almostEqual(got, want) {
		t.Errorf("AnkleToHipRatio = %v, want %v", got, want)
	}
}

func TestAnkleToHipRatioZeroHip(t *testing.T) {
	e := NewSignalExtractor()
	// hip average exactly zero must not divide
	frame := makeFrame(0,
		joint(JointLeftHip, 0.45, -0.2, 0),
		joint(JointRightHip, 0.55, 0.2, 0),
		joint(JointLeftAnkle, 0.45, 0.9, 0),
		joint(JointRightAnkle, 0.55, 0.9, 0),
	)
	if got := e.AnkleToHipRatio(frame); got != 0 {
		t.Errorf("AnkleToHipRatio with zero hip average = %v, want 0", got)
	}
}

func TestMissingJointDefaults(t *testing.T) {
	e := NewSignalExtractor()
	empty := makeFrame(0)

	if got := e.HipHeight(empty); got != 0 {
		t.Errorf("HipHeight = %v, want 0", got)
	}
	if got := e.AnkleToHipRatio(empty); got != 0 {
		t.Errorf("AnkleToHipRatio = %v, want 0", got)
	}
	if got := e.ChestRotation(empty); got != 0 {
		t.Errorf("ChestRotation = %v, want 0", got)
	}
	if got := e.HeadRotation(empty); got != 0 {
		t.Errorf("HeadRotation = %v, want 0", got)
	}
	if got := e.BodyStackedness(empty); got != 0 {
		t.Errorf("BodyStackedness = %v, want 0", got)
	}
	if got := e.ArmPosition(empty); got != (core.ArmPosition{}) {
		t.Errorf("ArmPosition = %+v, want zero value", got)
	}

	def := core.Vector3{X: 0, Y: 0, Z: 1}
	if got := e.ChestDirection(empty); got != def {
		t.Errorf("ChestDirection = %+v, want %+v", got, def)
	}
	if got := e.GazeDirection(empty); got != def {
		t.Errorf("GazeDirection = %+v, want %+v", got, def)
	}
}

func TestChestRotation(t *testing.T) {
	e := NewSignalExtractor()
	// shoulder line along +X → atan2(dx, 0) = 90°
	frame := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
	)
	if got := e.ChestRotation(frame); !almostEqual(got, 90.0) {
		t.Errorf("ChestRotation = %v, want 90", got)
	}
}

func TestChestDirectionIsUnit(t *testing.T) {
	e := NewSignalExtractor()
	frame := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.3, 0.1),
		joint(JointRightShoulder, 0.6, 0.35, 0.2),
		joint(JointLeftHip, 0.45, 0.55, 0),
		joint(JointRightHip, 0.55, 0.6, 0.05),
	)
	dir := e.ChestDirection(frame)
	if !almostEqual(dir.Length(), 1.0) {
		t.Errorf("ChestDirection length = %v, want 1", dir.Length())
	}
	// shoulders above hips in image space → negative Y component
	if dir.Y >= 0 {
		t.Errorf("ChestDirection.Y = %v, want negative (shoulders above hips)", dir.Y)
	}
}

func TestChestDirectionDegenerate(t *testing.T) {
	e := NewSignalExtractor()
	// shoulder center exactly on hip center → zero-length vector
	frame := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.5, 0),
		joint(JointRightShoulder, 0.6, 0.5, 0),
		joint(JointLeftHip, 0.4, 0.5, 0),
		joint(JointRightHip, 0.6, 0.5, 0),
	)
	def := core.Vector3{X: 0, Y: 0, Z: 1}
	if got := e.ChestDirection(frame); got != def {
		t.Errorf("degenerate ChestDirection = %+v, want %+v", got, def)
	}
}

func TestHeadRotation(t *testing.T) {
	e := NewSignalExtractor()
	// nose direction straight +Z, shoulder line straight +X → 90°
	frame := makeFrame(0,
		joint(JointNose, 0.5, 0.2, 0.5),
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
	)
	if got := e.HeadRotation(frame); !almostEqual(got, 90.0) {
		t.Errorf("HeadRotation = %v, want 90", got)
	}
}

func TestHeadRotationCollinearNotNaN(t *testing.T) {
	e := NewSignalExtractor()
	// nose direction parallel to the shoulder line; the cosine computation
	// can overshoot 1.0 by a few ulps here, which acos turns into NaN unless
	// the ratio is clamped.
	frame := makeFrame(0,
		joint(JointNose, 0.7, 0.2, 0.1),
		joint(JointLeftShoulder, 0.4, 0.35, 0.1),
		joint(JointRightShoulder, 0.6, 0.35, 0.1),
	)
	got := e.HeadRotation(frame)
	if math.IsNaN(got) {
		t.Fatal("HeadRotation returned NaN for collinear vectors")
	}
	if !almostEqual(got, 0) {
		t.Errorf("HeadRotation = %v, want 0 for parallel vectors", got)
	}
}

func TestBodyStackedness(t *testing.T) {
	e := NewSignalExtractor()

	stacked := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.3, 0),
		joint(JointRightShoulder, 0.6, 0.3, 0),
		joint(JointLeftHip, 0.4, 0.55, 0),
		joint(JointRightHip, 0.6, 0.55, 0),
	)
	if got := e.BodyStackedness(stacked); !almostEqual(got, 100.0) {
		t.Errorf("stacked BodyStackedness = %v, want 100", got)
	}

	// shoulder center offset 0.5 in X → 100 - 50
	leaning := makeFrame(0,
		joint(JointLeftShoulder, 0.9, 0.3, 0),
		joint(JointRightShoulder, 1.1, 0.3, 0),
		joint(JointLeftHip, 0.4, 0.55, 0),
		joint(JointRightHip, 0.6, 0.55, 0),
	)
	if got := e.BodyStackedness(leaning); !almostEqual(got, 50.0) {
		t.Errorf("leaning BodyStackedness = %v, want 50", got)
	}

	// far offset floors at 0 rather than going negative
	folded := makeFrame(0,
		joint(JointLeftShoulder, 2.9, 0.3, 0),
		joint(JointRightShoulder, 3.1, 0.3, 0),
		joint(JointLeftHip, 0.4, 0.55, 0),
		joint(JointRightHip, 0.6, 0.55, 0),
	)
	if got := e.BodyStackedness(folded); got != 0 {
		t.Errorf("folded BodyStackedness = %v, want 0", got)
	}
}

func TestArmPositionDirection(t *testing.T) {
	e := NewSignalExtractor()

	forward := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
		joint(JointLeftWrist, 0.3, 0.5, 0.3),
		joint(JointRightWrist, 0.7, 0.5, 0.3),
	)
	got := e.ArmPosition(forward)
	if !got.ArmsTowardNose || got.ArmsTowardTail {
		t.Errorf("wrists at +0.3 Z: got %+v, want ArmsTowardNose", got)
	}

	back := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
		joint(JointLeftWrist, 0.3, 0.5, -0.3),
		joint(JointRightWrist, 0.7, 0.5, -0.3),
	)
	got = e.ArmPosition(back)
	if !got.ArmsTowardTail || got.ArmsTowardNose {
		t.Errorf("wrists at -0.3 Z: got %+v, want ArmsTowardTail", got)
	}

	// inside the deadband neither flag fires
	neutral := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
		joint(JointLeftWrist, 0.3, 0.5, 0.05),
		joint(JointRightWrist, 0.7, 0.5, 0.05),
	)
	got = e.ArmPosition(neutral)
	if got.ArmsTowardNose || got.ArmsTowardTail {
		t.Errorf("wrists inside deadband: got %+v, want both flags false", got)
	}
}

func TestArmPositionAngles(t *testing.T) {
	e := NewSignalExtractor()
	// wrist straight below shoulder: atan2(+0.2, 0) = 90°
	frame := makeFrame(0,
		joint(JointLeftShoulder, 0.4, 0.35, 0),
		joint(JointRightShoulder, 0.6, 0.35, 0),
		joint(JointLeftWrist, 0.4, 0.55, 0),
		joint(JointRightWrist, 0.6, 0.55, 0),
	)
	got := e.ArmPosition(frame)
	if !almostEqual(got.LeftArmAngle, 90.0) || !almostEqual(got.RightArmAngle, 90.0) {
		t.Errorf("arm angles = (%v, %v), want (90, 90)", got.LeftArmAngle, got.RightArmAngle)
	}
}

func TestGazeDirectionIsUnit(t *testing.T) {
	e := NewSignalExtractor()
	frame := makeFrame(0,
		joint(JointNose, 0.5, 0.2, 0.1),
		joint(JointLeftEye, 0.48, 0.17, 0.12),
		joint(JointRightEye, 0.52, 0.17, 0.12),
	)
	dir := e.GazeDirection(frame)
	if !almostEqual(dir.Length(), 1.0) {
		t.Errorf("GazeDirection length = %v, want 1", dir.Length())
	}
}
