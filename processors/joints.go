package processors

import (
	"snowboardAnalyze/core"
)

// Standard MediaPipe joint names used by the per-frame transforms. The pose
// service must emit these exactly (case-sensitive, underscore-separated).
const (
	JointNose          = "nose"
	JointLeftEye       = "left_eye"
	JointRightEye      = "right_eye"
	JointLeftShoulder  = "left_shoulder"
	JointRightShoulder = "right_shoulder"
	JointLeftWrist     = "left_wrist"
	JointRightWrist    = "right_wrist"
	JointLeftHip       = "left_hip"
	JointRightHip      = "right_hip"
	JointLeftAnkle     = "left_ankle"
	JointRightAnkle    = "right_ankle"
)

// FindJoint looks up a joint by exact name within one frame. Returns nil when
// the joint was not detected in this frame; callers treat that as "signal
// undefined" and substitute the documented default, never an error.
func FindJoint(frame core.PoseFrame, name string) *core.Joint3D {
	for i := range frame.Joints {
		if frame.Joints[i].Name == name {
			return &frame.Joints[i]
		}
	}
	return nil
}

// position returns the joint as a vector for geometry code.
func position(j *core.Joint3D) core.Vector3 {
	return core.Vector3{X: j.X, Y: j.Y, Z: j.Z}
}

// midpoint of two joints, used for hip/shoulder/eye centers.
func midpoint(a, b *core.Joint3D) core.Vector3 {
	return core.Vector3{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

func sub(a, b core.Vector3) core.Vector3 {
	return core.Vector3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}
