package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"snowboardAnalyze/config"
)

// saveUploadedVideo stores the multipart upload inside the job directory.
func saveUploadedVideo(r *http.Request, jobDir string) (string, error) {
	if err := r.ParseMultipartForm(256 << 20); err != nil {
		return "", err
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		return "", errors.New("missing file field 'video'")
	}
	defer file.Close()
	filename := filepath.Join(jobDir, header.Filename)
	out, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return filename, nil
}

// extractFrames pulls frames from the video into framesDir at the configured
// rate. Pose analysis needs dense sampling — the temporal derivatives are in
// units of "per frame", so the extraction rate sets their time base.
func extractFrames(inputPath, framesDir string) ([]string, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %v", err)
	}

	pattern := filepath.Join(framesDir, "%06d.jpg")
	args := []string{"-y", "-i", inputPath, "-vf", fmt.Sprintf("fps=%d", cfg.FrameFPS), pattern}
	if err := runFFmpeg(args); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction: %v", err)
	}

	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		paths = append(paths, filepath.Join(framesDir, e.Name()))
	}
	// ffmpeg numbers frames sequentially; lexical order is frame order here
	sort.Strings(paths)
	return paths, nil
}
