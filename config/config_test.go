package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s", cfg.EmbeddingModel)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s", cfg.ChatModel)
	}
	if cfg.PoseProvider != "http" {
		t.Errorf("PoseProvider = %s, want http", cfg.PoseProvider)
	}
	if cfg.PoseServiceURL != "http://localhost:5000" {
		t.Errorf("PoseServiceURL = %s", cfg.PoseServiceURL)
	}
	if cfg.FrameFPS != 30 {
		t.Errorf("FrameFPS = %d, want 30", cfg.FrameFPS)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{PoseProvider: "mock", FrameFPS: 10}
	applyDefaults(cfg)
	if cfg.PoseProvider != "mock" {
		t.Errorf("PoseProvider = %s, want mock", cfg.PoseProvider)
	}
	if cfg.FrameFPS != 10 {
		t.Errorf("FrameFPS = %d, want 10", cfg.FrameFPS)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("POSE_PROVIDER", "script")
	t.Setenv("POSE_SCRIPT", "pose_service.py")

	cfg := &Config{PoseProvider: "http"}
	applyEnvOverrides(cfg)
	if cfg.PoseProvider != "script" {
		t.Errorf("PoseProvider = %s, want script", cfg.PoseProvider)
	}
	if cfg.PoseScript != "pose_service.py" {
		t.Errorf("PoseScript = %s", cfg.PoseScript)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{EmbeddingModel: "text-embedding-3-small"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate passed without an API key")
	}
	if cfg.HasValidAPI() {
		t.Error("HasValidAPI true without an API key")
	}

	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed with API key set: %v", err)
	}
	if !cfg.HasValidAPI() {
		t.Error("HasValidAPI false with an API key")
	}
}
