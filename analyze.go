package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snowboardAnalyze/core"
	"snowboardAnalyze/processors"
	"snowboardAnalyze/storage"
)

type AnalyzeVideoRequest struct {
	VideoPath string `json:"video_path"`
}

type AnalyzeVideoResponse struct {
	JobID           string                `json:"job_id"`
	Message         string                `json:"message"`
	Steps           []Step                `json:"steps"`
	DurationSeconds float64               `json:"duration_seconds"`
	FrameCount      int                   `json:"frame_count"`
	Phases          []core.PhaseSegment   `json:"phases"`
	EdgeTransitions []core.EdgeTransition `json:"edge_transitions"`
}

type Step struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // "completed", "failed"
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type AnalyzePoseRequest struct {
	Frames []core.PoseFrame `json:"frames"`
}

type AnalyzePoseResponse struct {
	Signals *core.PhaseDetectionSignals `json:"signals"`
	Phases  []core.PhaseSegment         `json:"phases"`
}

// analyzeVideoHandler 完整分析流水线: 视频 → 帧 → 姿态 → 信号 → 阶段
func analyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	jobID := core.NewID()
	jobDir := filepath.Join(core.DataRoot(), jobID)
	framesDir := filepath.Join(jobDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var inputPath string
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		var err error
		inputPath, err = saveUploadedVideo(r, jobDir)
		if err != nil {
			core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	} else {
		var req AnalyzeVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if req.VideoPath == "" {
			core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "video_path required"})
			return
		}
		dst := filepath.Join(jobDir, "input"+filepath.Ext(req.VideoPath))
		if err := copyFile(req.VideoPath, dst); err != nil {
			core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		inputPath = dst
	}

	resp := AnalyzeVideoResponse{JobID: jobID, Steps: make([]Step, 0)}
	if dur, err := probeDuration(inputPath); err == nil {
		resp.DurationSeconds = dur
	} else {
		fmt.Printf("Warning: failed to probe video duration: %v\n", err)
	}

	// Step 1: 抽帧
	stepStart := time.Now()
	framePaths, err := extractFrames(inputPath, framesDir)
	elapsed := timeStep("extract_frames", stepStart)
	if err != nil {
		resp.Steps = append(resp.Steps, Step{Name: "extract_frames", Status: "failed", Error: err.Error(), ElapsedMS: elapsed.Milliseconds()})
		resp.Message = "Frame extraction failed"
		core.WriteJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Steps = append(resp.Steps, Step{Name: "extract_frames", Status: "completed", ElapsedMS: elapsed.Milliseconds()})
	resp.FrameCount = len(framePaths)

	// Step 2: 姿态检测
	stepStart = time.Now()
	provider := processors.PickPoseProvider()
	timeline, err := provider.DetectPoses(r.Context(), framePaths)
	elapsed = timeStep("detect_poses", stepStart)
	if err != nil {
		resp.Steps = append(resp.Steps, Step{Name: "detect_poses", Status: "failed", Error: err.Error(), ElapsedMS: elapsed.Milliseconds()})
		resp.Message = "Pose detection failed"
		core.WriteJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Steps = append(resp.Steps, Step{Name: "detect_poses", Status: "completed", ElapsedMS: elapsed.Milliseconds()})
	if err := core.SaveJSON(filepath.Join(jobDir, "timeline.json"), timeline); err != nil {
		fmt.Printf("Warning: failed to save timeline: %v\n", err)
	}

	// Step 3: 信号提取 + 阶段分割
	stepStart = time.Now()
	extractor := processors.NewSignalExtractor()
	signals := extractor.Extract(timeline)
	phases := extractor.ClassifyPhases(signals)
	elapsed = timeStep("extract_signals", stepStart)
	resp.Steps = append(resp.Steps, Step{Name: "extract_signals", Status: "completed", ElapsedMS: elapsed.Milliseconds()})
	pipelineMetrics.JobCompleted()

	if err := core.SaveJSON(filepath.Join(jobDir, "signals.json"), signals); err != nil {
		fmt.Printf("Warning: failed to save signals: %v\n", err)
	}
	if err := core.SaveJSON(filepath.Join(jobDir, "phases.json"), phases); err != nil {
		fmt.Printf("Warning: failed to save phases: %v\n", err)
	}

	resp.Message = "Analysis completed"
	resp.Phases = phases
	resp.EdgeTransitions = signals.EdgeTransitions
	core.WriteJSON(w, http.StatusOK, resp)
}

// analyzePoseHandler exposes the pure library call: a pose timeline in, the
// derived signals and phase segments out. No job directory, no side effects.
func analyzePoseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req AnalyzePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	extractor := processors.NewSignalExtractor()
	signals := extractor.Extract(req.Frames)
	phases := extractor.ClassifyPhases(signals)
	core.WriteJSON(w, http.StatusOK, AnalyzePoseResponse{Signals: signals, Phases: phases})
}

func signalsHandler(w http.ResponseWriter, r *http.Request) {
	serveJobArtifact(w, r, "signals.json")
}

func phasesHandler(w http.ResponseWriter, r *http.Request) {
	serveJobArtifact(w, r, "phases.json")
}

func serveJobArtifact(w http.ResponseWriter, r *http.Request, name string) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "job_id required"})
		return
	}
	var v any
	if err := core.LoadJSON(filepath.Join(core.DataRoot(), jobID, name), &v); err != nil {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("%s not found for job %s", name, jobID)})
		return
	}
	core.WriteJSON(w, http.StatusOK, v)
}

type StoreTipsRequest struct {
	Tips []core.CoachingTip `json:"tips"`
}

func storeTipsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req StoreTipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Tips) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "tips required"})
		return
	}
	cnt := storage.GlobalStore().Upsert(req.Tips)
	core.WriteJSON(w, http.StatusOK, map[string]int{"count": cnt})
}

type CoachRequest struct {
	JobID    string `json:"job_id,omitempty"`
	Question string `json:"question,omitempty"`
	TopK     int    `json:"top_k"`
}

type CoachResponse struct {
	Question string        `json:"question"`
	Advice   string        `json:"advice"`
	Hits     []core.TipHit `json:"hits"`
}

// coachHandler retrieves coaching tips for either a free-form question or a
// previously analyzed job (the question is then built from the run's weak
// spots).
func coachHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req CoachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" && req.JobID != "" {
		var signals core.PhaseDetectionSignals
		if err := core.LoadJSON(filepath.Join(core.DataRoot(), req.JobID, "signals.json"), &signals); err != nil {
			core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "signals not found for job " + req.JobID})
			return
		}
		question = buildObservation(&signals)
	}
	if question == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "question or job_id required"})
		return
	}

	hits := storage.GlobalStore().Search(question, req.TopK)
	advice := storage.SynthesizeAdvice(question, hits)
	core.WriteJSON(w, http.StatusOK, CoachResponse{Question: question, Advice: advice, Hits: hits})
}

// buildObservation summarizes a run's weak spots into a retrieval query.
func buildObservation(signals *core.PhaseDetectionSignals) string {
	parts := []string{"snowboard trick analysis"}

	if len(signals.EdgeTransitions) > 0 {
		worst := signals.EdgeTransitions[0]
		for _, tr := range signals.EdgeTransitions[1:] {
			if tr.Smoothness < worst.Smoothness {
				worst = tr
			}
		}
		if worst.Smoothness < 50 {
			parts = append(parts, fmt.Sprintf("rough %s to %s edge transition", worst.FromEdge, worst.ToEdge))
		}
	}

	if len(signals.BodyStackedness) > 0 {
		var sum float64
		for _, v := range signals.BodyStackedness {
			sum += v
		}
		if sum/float64(len(signals.BodyStackedness)) < 60 {
			parts = append(parts, "shoulders not stacked over hips")
		}
	}

	return strings.Join(parts, ", ")
}
