package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	ApplyDefaults(&cfg)

	if cfg.Monitor == nil {
		t.Fatal("monitor section not created")
	}
	if cfg.Monitor.OriginatorsPath != DefaultOriginatorsPath {
		t.Fatalf("originators_path=%q", cfg.Monitor.OriginatorsPath)
	}
	if cfg.Monitor.PollIntervalSec != DefaultPollIntervalSec {
		t.Fatalf("poll_interval_sec=%d", cfg.Monitor.PollIntervalSec)
	}
	if cfg.Monitor.PredictIntervalSec != DefaultPredictIntervalSec {
		t.Fatalf("predict_interval_sec=%d", cfg.Monitor.PredictIntervalSec)
	}
	if cfg.Monitor.ActionThreshold != DefaultActionThreshold {
		t.Fatalf("action_threshold=%v", cfg.Monitor.ActionThreshold)
	}
	if cfg.API == nil || cfg.API.Listen != DefaultAPIListen {
		t.Fatalf("api=%+v", cfg.API)
	}
}

func TestValidate_PredictShorterThanPoll(t *testing.T) {
	t.Parallel()

	cfg := Config{Monitor: &MonitorConfig{
		PollIntervalSec:    10,
		PredictIntervalSec: 5,
		ActionThreshold:    0.7,
	}}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	t.Parallel()

	cfg := Config{Monitor: &MonitorConfig{
		PollIntervalSec:    2,
		PredictIntervalSec: 5,
		ActionThreshold:    1.5,
	}}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error")
	}

	cfg.Monitor.ActionThreshold = 0.7
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meshmon.yaml")
	content := `monitor:
  originators_path: /tmp/originators
  poll_interval_sec: 1
  predict_interval_sec: 3
chat:
  listen: ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.OriginatorsPath != "/tmp/originators" {
		t.Fatalf("originators_path=%q", cfg.Monitor.OriginatorsPath)
	}
	if cfg.Monitor.PollIntervalSec != 1 || cfg.Monitor.PredictIntervalSec != 3 {
		t.Fatalf("intervals=%+v", cfg.Monitor)
	}
	// Defaults fill the rest.
	if cfg.Monitor.LogDir != DefaultLogDir || cfg.API.Listen != DefaultAPIListen {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Chat == nil || cfg.Chat.Listen != ":9000" {
		t.Fatalf("chat=%+v", cfg.Chat)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
