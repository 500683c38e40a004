package processors

import (
	"math"

	"snowboardAnalyze/core"
)

const radToDeg = 180.0 / math.Pi

// defaultDirection is the fallback for direction signals when joints are
// missing: straight down the forward (Z) axis.
func defaultDirection() core.Vector3 { return core.Vector3{X: 0, Y: 0, Z: 1} }

// EdgeAngle estimates board edge pressure from the vertical asymmetry between
// the ankles, in degrees. The horizontal ankle separation is not measurable
// from a single frame, so a fixed span (config AnkleSpan, same unit as joint
// coordinates) stands in for it. Positive = toeside, negative = heelside; the
// sign convention is a design assumption, not verified against ground truth.
// Returns 0 when either ankle is missing.
func (e *SignalExtractor) EdgeAngle(frame core.PoseFrame) float64 {
	left := FindJoint(frame, JointLeftAnkle)
	right := FindJoint(frame, JointRightAnkle)
	if left == nil || right == nil {
		return 0
	}
	return math.Atan2(left.Y-right.Y, e.config.AnkleSpan) * radToDeg
}

// HipHeight is the average Y of both hips, 0 when either is missing. Y grows
// downward in image space, so smaller values mean the rider is higher.
func (e *SignalExtractor) HipHeight(frame core.PoseFrame) float64 {
	left := FindJoint(frame, JointLeftHip)
	right := FindJoint(frame, JointRightHip)
	if left == nil || right == nil {
		return 0
	}
	return (left.Y + right.Y) / 2
}

// AnkleToHipRatio is avg ankle Y over avg hip Y. Downstream treats values
// above the airborne ratio (config, ~1.1) as "rider in the air"; the
// classification itself happens in the phase classifier, not here. Returns 0
// when any of the four joints is missing or the hip average is exactly zero.
func (e *SignalExtractor) AnkleToHipRatio(frame core.PoseFrame) float64 {
	leftAnkle := FindJoint(frame, JointLeftAnkle)
	rightAnkle := FindJoint(frame, JointRightAnkle)
	leftHip := FindJoint(frame, JointLeftHip)
	rightHip := FindJoint(frame, JointRightHip)
	if leftAnkle == nil || rightAnkle == nil || leftHip == nil || rightHip == nil {
		return 0
	}
	ankleY := (leftAnkle.Y + rightAnkle.Y) / 2
	hipY := (leftHip.Y + rightHip.Y) / 2
	if hipY == 0 {
		return 0
	}
	return ankleY / hipY
}

// ChestRotation is the angle of the shoulder line projected onto the X-Z
// plane, relative to the forward (Z) axis, in degrees. 0 when either shoulder
// is missing.
func (e *SignalExtractor) ChestRotation(frame core.PoseFrame) float64 {
	left := FindJoint(frame, JointLeftShoulder)
	right := FindJoint(frame, JointRightShoulder)
	if left == nil || right == nil {
		return 0
	}
	dx := right.X - left.X
	dz := right.Z - left.Z
	return math.Atan2(dx, dz) * radToDeg
}

// ChestDirection is the unit vector from hip center to shoulder center.
// Defaults to (0,0,1) when any of the four joints is missing or the vector is
// degenerate (zero length).
func (e *SignalExtractor) ChestDirection(frame core.PoseFrame) core.Vector3 {
	leftShoulder := FindJoint(frame, JointLeftShoulder)
	rightShoulder := FindJoint(frame, JointRightShoulder)
	leftHip := FindJoint(frame, JointLeftHip)
	rightHip := FindJoint(frame, JointRightHip)
	if leftShoulder == nil || rightShoulder == nil || leftHip == nil || rightHip == nil {
		return defaultDirection()
	}
	shoulderCenter := midpoint(leftShoulder, rightShoulder)
	hipCenter := midpoint(leftHip, rightHip)
	return sub(shoulderCenter, hipCenter).Normalized(defaultDirection())
}

// HeadRotation is the angle in degrees between the nose direction and the
// shoulder line, both projected onto the X-Z plane. The dot/|a||b| ratio is
// clamped to [-1,1] before acos: floating-point overshoot otherwise produces
// NaN that silently poisons every downstream consumer. Returns 0 when the
// nose or either shoulder is missing, or either projected vector is
// degenerate.
func (e *SignalExtractor) HeadRotation(frame core.PoseFrame) float64 {
	nose := FindJoint(frame, JointNose)
	left := FindJoint(frame, JointLeftShoulder)
	right := FindJoint(frame, JointRightShoulder)
	if nose == nil || left == nil || right == nil {
		return 0
	}
	shoulderCenter := midpoint(left, right)

	// project both vectors onto X-Z
	ax := nose.X - shoulderCenter.X
	az := nose.Z - shoulderCenter.Z
	bx := right.X - left.X
	bz := right.Z - left.Z

	la := math.Sqrt(ax*ax + az*az)
	lb := math.Sqrt(bx*bx + bz*bz)
	if la == 0 || lb == 0 {
		return 0
	}

	cos := (ax*bx + az*bz) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * radToDeg
}

// BodyStackedness scores how directly the shoulders sit above the hips in the
// horizontal plane: 100 means perfectly stacked, decreasing linearly with the
// X-Z distance between the two centers. Floored at 0; returns 0 when any of
// the four joints is missing.
func (e *SignalExtractor) BodyStackedness(frame core.PoseFrame) float64 {
	leftShoulder := FindJoint(frame, JointLeftShoulder)
	rightShoulder := FindJoint(frame, JointRightShoulder)
	leftHip := FindJoint(frame, JointLeftHip)
	rightHip := FindJoint(frame, JointRightHip)
	if leftShoulder == nil || rightShoulder == nil || leftHip == nil || rightHip == nil {
		return 0
	}
	shoulderCenter := midpoint(leftShoulder, rightShoulder)
	hipCenter := midpoint(leftHip, rightHip)
	dx := shoulderCenter.X - hipCenter.X
	dz := shoulderCenter.Z - hipCenter.Z
	dist := math.Sqrt(dx*dx + dz*dz)
	return math.Max(0, 100-dist*100)
}

// ArmPosition computes both arm angles (wrist relative to shoulder in the Y-Z
// plane, degrees) and whether both wrists sit toward the board nose (+Z) or
// tail (-Z) of the shoulders, outside the configured deadband. Zero value when
// any of the four joints is missing.
func (e *SignalExtractor) ArmPosition(frame core.PoseFrame) core.ArmPosition {
	leftShoulder := FindJoint(frame, JointLeftShoulder)
	rightShoulder := FindJoint(frame, JointRightShoulder)
	leftWrist := FindJoint(frame, JointLeftWrist)
	rightWrist := FindJoint(frame, JointRightWrist)
	if leftShoulder == nil || rightShoulder == nil || leftWrist == nil || rightWrist == nil {
		return core.ArmPosition{}
	}

	leftAngle := math.Atan2(leftWrist.Y-leftShoulder.Y, leftWrist.Z-leftShoulder.Z) * radToDeg
	rightAngle := math.Atan2(rightWrist.Y-rightShoulder.Y, rightWrist.Z-rightShoulder.Z) * radToDeg

	wristZ := (leftWrist.Z + rightWrist.Z) / 2
	shoulderZ := (leftShoulder.Z + rightShoulder.Z) / 2
	dz := wristZ - shoulderZ

	return core.ArmPosition{
		LeftArmAngle:   leftAngle,
		RightArmAngle:  rightAngle,
		ArmsTowardNose: dz > e.config.ArmDeadband,
		ArmsTowardTail: dz < -e.config.ArmDeadband,
	}
}

// GazeDirection is the unit vector from the nose to the eye center. Defaults
// to (0,0,1) when the nose or either eye is missing.
func (e *SignalExtractor) GazeDirection(frame core.PoseFrame) core.Vector3 {
	nose := FindJoint(frame, JointNose)
	leftEye := FindJoint(frame, JointLeftEye)
	rightEye := FindJoint(frame, JointRightEye)
	if nose == nil || leftEye == nil || rightEye == nil {
		return defaultDirection()
	}
	eyeCenter := midpoint(leftEye, rightEye)
	return sub(eyeCenter, position(nose)).Normalized(defaultDirection())
}
