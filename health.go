package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"snowboardAnalyze/config"
	"snowboardAnalyze/core"
)

// HealthStatus 整体健康状态
type HealthStatus struct {
	Status    string                 `json:"status"` // healthy, degraded, unhealthy
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
	System    SystemInfo             `json:"system"`
	Storage   StorageInfo            `json:"storage"`
}

// HealthCheck 单项检查结果
type HealthCheck struct {
	Status  string `json:"status"` // ok, warning, error
	Message string `json:"message"`
	Latency int64  `json:"latency_ms"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
}

// StorageInfo 存储信息
type StorageInfo struct {
	DataRoot     string `json:"data_root"`
	DiskUsageMB  int64  `json:"disk_usage_mb"`
	TotalJobs    int    `json:"total_jobs"`
	CompleteJobs int    `json:"complete_jobs"`
	PartialJobs  int    `json:"partial_jobs"`
}

// healthCheckHandler 健康检查端点
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	checks := make(map[string]HealthCheck)
	checks["ffmpeg"] = checkFFmpegHealth()
	checks["pose_service"] = checkPoseServiceHealth()
	checks["data_directory"] = checkDataDirectoryHealth()

	systemInfo := SystemInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	storageInfo := collectStorageInfo()

	overallStatus := "healthy"
	for _, check := range checks {
		if check.Status == "error" {
			overallStatus = "unhealthy"
			break
		} else if check.Status == "warning" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	healthStatus := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		System:    systemInfo,
		Storage:   storageInfo,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	log.Printf("Health check completed in %v, status: %s", time.Since(start), overallStatus)
	core.WriteJSON(w, statusCode, healthStatus)
}

// checkFFmpegHealth 检查FFmpeg健康状态
func checkFFmpegHealth() HealthCheck {
	start := time.Now()

	cmd := exec.Command("ffmpeg", "-version")
	output, err := cmd.Output()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return HealthCheck{
			Status:  "error",
			Message: fmt.Sprintf("FFmpeg not available: %v", err),
			Latency: latency,
		}
	}

	versionLine := strings.Split(string(output), "\n")[0]
	return HealthCheck{
		Status:  "ok",
		Message: fmt.Sprintf("FFmpeg available: %s", versionLine),
		Latency: latency,
	}
}

// checkPoseServiceHealth 检查姿态检测服务健康状态
func checkPoseServiceHealth() HealthCheck {
	start := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		return HealthCheck{
			Status:  "warning",
			Message: fmt.Sprintf("Config not loaded: %v", err),
			Latency: time.Since(start).Milliseconds(),
		}
	}
	if strings.ToLower(cfg.PoseProvider) == "mock" {
		return HealthCheck{
			Status:  "warning",
			Message: "Mock pose provider configured (no real detection)",
			Latency: time.Since(start).Milliseconds(),
		}
	}
	if strings.ToLower(cfg.PoseProvider) == "script" {
		cmd := exec.Command("python", "--version")
		output, err := cmd.Output()
		latency := time.Since(start).Milliseconds()
		if err != nil {
			return HealthCheck{
				Status:  "error",
				Message: fmt.Sprintf("Python not available for pose script: %v", err),
				Latency: latency,
			}
		}
		return HealthCheck{
			Status:  "ok",
			Message: fmt.Sprintf("Pose script runner available: %s", strings.TrimSpace(string(output))),
			Latency: latency,
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimRight(cfg.PoseServiceURL, "/") + "/health")
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthCheck{
			Status:  "warning",
			Message: fmt.Sprintf("Pose service unreachable: %v (will emit empty frames)", err),
			Latency: latency,
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return HealthCheck{
			Status:  "warning",
			Message: fmt.Sprintf("Pose service returned status %d", resp.StatusCode),
			Latency: latency,
		}
	}
	return HealthCheck{
		Status:  "ok",
		Message: "Pose service reachable",
		Latency: latency,
	}
}

// checkDataDirectoryHealth 检查数据目录健康状态
func checkDataDirectoryHealth() HealthCheck {
	start := time.Now()

	testFile := filepath.Join(core.DataRoot(), ".health_check")
	err := os.WriteFile(testFile, []byte("health check"), 0644)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return HealthCheck{
			Status:  "error",
			Message: fmt.Sprintf("Data directory not writable: %v", err),
			Latency: latency,
		}
	}
	os.Remove(testFile)

	return HealthCheck{
		Status:  "ok",
		Message: "Data directory writable",
		Latency: latency,
	}
}

// collectStorageInfo 收集存储信息
func collectStorageInfo() StorageInfo {
	dataDir := core.DataRoot()
	info := StorageInfo{
		DataRoot:    dataDir,
		DiskUsageMB: calculateDiskUsage(dataDir) / 1024 / 1024,
	}

	files, err := os.ReadDir(dataDir)
	if err != nil {
		return info
	}

	for _, file := range files {
		if !file.IsDir() || len(file.Name()) != 32 {
			continue
		}
		info.TotalJobs++
		jobDir := filepath.Join(dataDir, file.Name())
		if hasFile(jobDir, "signals.json") {
			info.CompleteJobs++
		} else {
			info.PartialJobs++
		}
	}

	return info
}

// calculateDiskUsage 计算目录磁盘使用量
func calculateDiskUsage(dir string) int64 {
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// statsHandler 服务统计端点
func statsHandler(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"storage":    collectStorageInfo(),
		"pipeline":   pipelineMetrics.Snapshot(),
		"goroutines": runtime.NumGoroutine(),
		"timestamp":  time.Now(),
	})
}
