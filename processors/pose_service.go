package processors

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"snowboardAnalyze/config"
	"snowboardAnalyze/core"
)

// PoseEstimator is the boundary to the upstream pose-estimation model. It is
// an arbitrary black box that returns named joints with 3D coordinates and
// confidence per frame; frames where detection failed come back with an empty
// joint list rather than an error, matching the dropout semantics the signal
// pipeline expects.
type PoseEstimator interface {
	DetectPoses(ctx context.Context, framePaths []string) ([]core.PoseFrame, error)
}

// HTTPPoseService calls the Flask pose service (POST /pose/hybrid with a
// base64 frame, keypoints back as {name,x,y,z,confidence}).
type HTTPPoseService struct {
	BaseURL string
	Client  *http.Client
}

// ScriptPoseService pipes all frames to a python entry point in one batch:
// frames JSON on stdin, per-frame results JSON on stdout.
type ScriptPoseService struct {
	Script string
}

// MockPoseService synthesizes a plausible rider skeleton so the rest of the
// pipeline can run without any pose model installed.
type MockPoseService struct{}

type poseKeypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
}

type poseResult struct {
	FrameNumber int            `json:"frame_number"`
	Keypoints   []poseKeypoint `json:"keypoints"`
	Error       string         `json:"error,omitempty"`
}

func (s HTTPPoseService) DetectPoses(ctx context.Context, framePaths []string) ([]core.PoseFrame, error) {
	frames := make([]core.PoseFrame, 0, len(framePaths))
	for i, path := range framePaths {
		frame, err := s.detectOne(ctx, i, path)
		if err != nil {
			// Dropout, not failure: an undetectable frame yields an empty
			// joint list and the signals degrade to their defaults.
			fmt.Printf("Warning: pose detection failed for frame %d (%v), emitting empty frame\n", i, err)
			frame = core.PoseFrame{FrameNumber: i}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (s HTTPPoseService) detectOne(ctx context.Context, frameNumber int, path string) (core.PoseFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.PoseFrame{}, fmt.Errorf("read frame: %v", err)
	}

	body, err := json.Marshal(map[string]any{
		"frame_number": frameNumber,
		"image_base64": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return core.PoseFrame{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.BaseURL+"/pose/hybrid", bytes.NewReader(body))
	if err != nil {
		return core.PoseFrame{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return core.PoseFrame{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.PoseFrame{}, fmt.Errorf("pose service returned status %d", resp.StatusCode)
	}

	var result poseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.PoseFrame{}, fmt.Errorf("parse pose response: %v", err)
	}
	if result.Error != "" {
		return core.PoseFrame{}, fmt.Errorf("pose service error: %s", result.Error)
	}

	return toPoseFrame(frameNumber, result.Keypoints), nil
}

func (s HTTPPoseService) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s ScriptPoseService) DetectPoses(ctx context.Context, framePaths []string) ([]core.PoseFrame, error) {
	type scriptFrame struct {
		FrameNumber int    `json:"frameNumber"`
		ImagePath   string `json:"imagePath"`
	}
	req := struct {
		Frames []scriptFrame `json:"frames"`
	}{Frames: make([]scriptFrame, len(framePaths))}
	for i, p := range framePaths {
		req.Frames[i] = scriptFrame{FrameNumber: i, ImagePath: p}
	}
	input, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "python", s.Script)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = os.Stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pose script failed: %v", err)
	}

	var results []struct {
		FrameNumber int            `json:"frameNumber"`
		Keypoints   []poseKeypoint `json:"keypoints"`
		Error       string         `json:"error,omitempty"`
	}
	if err := json.Unmarshal(output, &results); err != nil {
		return nil, fmt.Errorf("parse pose script output: %v", err)
	}

	frames := make([]core.PoseFrame, len(framePaths))
	for i := range frames {
		frames[i] = core.PoseFrame{FrameNumber: i}
	}
	for _, r := range results {
		if r.FrameNumber < 0 || r.FrameNumber >= len(frames) {
			continue
		}
		if r.Error != "" {
			fmt.Printf("Warning: pose script reported error for frame %d: %s\n", r.FrameNumber, r.Error)
			continue
		}
		frames[r.FrameNumber] = toPoseFrame(r.FrameNumber, r.Keypoints)
	}
	return frames, nil
}

func (m MockPoseService) DetectPoses(ctx context.Context, framePaths []string) ([]core.PoseFrame, error) {
	frames := make([]core.PoseFrame, 0, len(framePaths))
	for i := range framePaths {
		// A standing rider gently rocking between edges, so edge-angle and
		// transition code has something to chew on.
		rock := 0.2 * math.Sin(float64(i)*0.2)
		frames = append(frames, core.PoseFrame{
			FrameNumber: i,
			Joints: []core.Joint3D{
				{Name: JointNose, X: 0.5, Y: 0.2, Z: 0.1, Confidence: 0.9},
				{Name: JointLeftEye, X: 0.48, Y: 0.18, Z: 0.12, Confidence: 0.9},
				{Name: JointRightEye, X: 0.52, Y: 0.18, Z: 0.12, Confidence: 0.9},
				{Name: JointLeftShoulder, X: 0.4, Y: 0.35, Z: 0, Confidence: 0.9},
				{Name: JointRightShoulder, X: 0.6, Y: 0.35, Z: 0.05, Confidence: 0.9},
				{Name: JointLeftWrist, X: 0.3, Y: 0.5, Z: 0.1, Confidence: 0.8},
				{Name: JointRightWrist, X: 0.7, Y: 0.5, Z: 0.1, Confidence: 0.8},
				{Name: JointLeftHip, X: 0.45, Y: 0.55, Z: 0, Confidence: 0.9},
				{Name: JointRightHip, X: 0.55, Y: 0.55, Z: 0.02, Confidence: 0.9},
				{Name: JointLeftAnkle, X: 0.45, Y: 0.9 + rock, Z: 0, Confidence: 0.9},
				{Name: JointRightAnkle, X: 0.55, Y: 0.9 - rock, Z: 0, Confidence: 0.9},
			},
		})
	}
	return frames, nil
}

func toPoseFrame(frameNumber int, kps []poseKeypoint) core.PoseFrame {
	joints := make([]core.Joint3D, 0, len(kps))
	for _, kp := range kps {
		joints = append(joints, core.Joint3D{
			Name:       kp.Name,
			X:          kp.X,
			Y:          kp.Y,
			Z:          kp.Z,
			Confidence: kp.Confidence,
		})
	}
	return core.PoseFrame{FrameNumber: frameNumber, Joints: joints}
}

// PickPoseProvider selects the pose backend from config/env, falling back to
// the mock provider when the configured one cannot work.
func PickPoseProvider() PoseEstimator {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Warning: failed to load config (%v), using mock pose provider\n", err)
		return MockPoseService{}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.PoseProvider)) {
	case "mock":
		return MockPoseService{}
	case "script":
		if cfg.PoseScript == "" {
			fmt.Println("Warning: pose_script not configured, using mock pose provider")
			return MockPoseService{}
		}
		return ScriptPoseService{Script: cfg.PoseScript}
	default:
		return HTTPPoseService{BaseURL: strings.TrimRight(cfg.PoseServiceURL, "/")}
	}
}
