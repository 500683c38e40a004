package core

import "math"

// ========== 姿态数据结构 ==========

// Joint3D is one named skeletal landmark in a single frame. Names follow the
// MediaPipe vocabulary (nose, left_eye, ..., left_ankle) exactly, case-sensitive.
// X/Y are in the pixel space of the source video (Y grows downward), Z is the
// normalized depth the pose model reports. Confidence comes straight from the
// upstream detector and is not interpreted here.
type Joint3D struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

// PoseFrame holds the joints detected for one video frame. A joint may be
// absent in any frame (tracking dropout); consumers must not assume presence.
type PoseFrame struct {
	FrameNumber int       `json:"frame_number"`
	Joints      []Joint3D `json:"joints"`
}

// Vector3 is a plain 3D vector in the same coordinate space as Joint3D.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns the unit vector, or the fallback when the vector has
// (near) zero length. Callers pass the documented default for their signal.
func (v Vector3) Normalized(fallback Vector3) Vector3 {
	l := v.Length()
	if l < 1e-9 {
		return fallback
	}
	return Vector3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// ========== 导出信号结构 ==========

// Edge names which side of the board is weighted.
const (
	EdgeHeelside = "heelside"
	EdgeToeside  = "toeside"
)

// EdgeTransition is emitted at the frame where the edge angle crosses the
// detection threshold. Immutable once emitted.
type EdgeTransition struct {
	Frame      int     `json:"frame"`
	FromEdge   string  `json:"from_edge"`
	ToEdge     string  `json:"to_edge"`
	Smoothness float64 `json:"smoothness"` // [0,100], higher = more gradual
}

// ArmPosition describes both arms for one frame. Angles are degrees of the
// wrist relative to its shoulder in the Y-Z plane. The booleans report whether
// both wrists sit ahead of (nose) or behind (tail) the shoulders along Z.
type ArmPosition struct {
	LeftArmAngle   float64 `json:"left_arm_angle"`
	RightArmAngle  float64 `json:"right_arm_angle"`
	ArmsTowardTail bool    `json:"arms_toward_tail"`
	ArmsTowardNose bool    `json:"arms_toward_nose"`
}

// PhaseDetectionSignals is the full output of one analysis pass: one entry per
// input frame for every per-frame signal, plus the chronological edge
// transition events. All angles are degrees; direction vectors are unit length
// whenever the required joints were present.
type PhaseDetectionSignals struct {
	EdgeAngle             []float64        `json:"edge_angle"`
	HipHeight             []float64        `json:"hip_height"`
	HipVelocity           []float64        `json:"hip_velocity"`
	HipAcceleration       []float64        `json:"hip_acceleration"`
	AnkleToHipRatio       []float64        `json:"ankle_to_hip_ratio"`
	ChestRotation         []float64        `json:"chest_rotation"`
	ChestRotationVelocity []float64        `json:"chest_rotation_velocity"`
	ChestDirection        []Vector3        `json:"chest_direction"`
	ArmPosition           []ArmPosition    `json:"arm_position"`
	GazeDirection         []Vector3        `json:"gaze_direction"`
	HeadRotation          []float64        `json:"head_rotation"`
	BodyStackedness       []float64        `json:"body_stackedness"`
	FormVariance          []float64        `json:"form_variance"`
	EdgeTransitions       []EdgeTransition `json:"edge_transitions"`
}

// ========== 动作阶段 ==========

// TrickPhase is one of the six segments of a snowboard trick.
type TrickPhase string

const (
	PhaseSetupCarve TrickPhase = "setup_carve"
	PhaseWindUp     TrickPhase = "wind_up"
	PhaseSnap       TrickPhase = "snap"
	PhaseTakeoff    TrickPhase = "takeoff"
	PhaseAir        TrickPhase = "air"
	PhaseLanding    TrickPhase = "landing"
)

// PhaseSegment is a classified span of frames, inclusive on both ends.
type PhaseSegment struct {
	Phase      TrickPhase `json:"phase"`
	StartFrame int        `json:"start_frame"`
	EndFrame   int        `json:"end_frame"`
}

// ========== 教练提示 ==========

// CoachingTip is one entry in the tip library that the vector store indexes.
type CoachingTip struct {
	Phase  string `json:"phase"` // trick phase the tip applies to, "" = general
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// TipHit is a scored retrieval result.
type TipHit struct {
	Score float64 `json:"score"`
	Phase string  `json:"phase"`
	Title string  `json:"title"`
	Text  string  `json:"text"`
}
