package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfigDefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Session.Interval != 100*time.Millisecond {
		t.Fatalf("interval = %s", cfg.Session.Interval)
	}
	if cfg.Session.TargetReps != 10 {
		t.Fatalf("target reps = %d", cfg.Session.TargetReps)
	}
	if len(cfg.Launcher) != 3 {
		t.Fatalf("expected 3 launcher modes, got %d", len(cfg.Launcher))
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fitcoach.yaml")
	yamlDoc := `
server_port: "9090"
camera:
  driver: pattern
  width: 320
  height: 240
session:
  interval: 40ms
launcher:
  enhanced:
    command: ["./trainer", "--all"]
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FITCOACH_PORT", "9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != "9191" {
		t.Errorf("env should override file, port = %s", cfg.ServerPort)
	}
	if cfg.Camera.Driver != "pattern" || cfg.Camera.Width != 320 {
		t.Errorf("file values not applied: %+v", cfg.Camera)
	}
	if cfg.Camera.Device != "/dev/video0" {
		t.Errorf("defaults should survive partial file, device = %s", cfg.Camera.Device)
	}
	if cfg.Session.Interval != 40*time.Millisecond {
		t.Errorf("interval = %s", cfg.Session.Interval)
	}
	if got := cfg.Launcher["enhanced"].Command; len(got) != 2 || got[0] != "./trainer" {
		t.Errorf("enhanced command = %v", got)
	}
}

func TestLoadUsesEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("log_dir: elsewhere\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogDir != "elsewhere" {
		t.Fatalf("log dir = %s", cfg.LogDir)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.ServerPort = "0" }, "server port"},
		{"driver", func(c *Config) { c.Camera.Driver = "gstreamer" }, "camera driver"},
		{"size", func(c *Config) { c.Camera.Width = 0 }, "camera size"},
		{"interval", func(c *Config) { c.Session.Interval = -time.Second }, "frame interval"},
		{"target", func(c *Config) { c.Session.TargetReps = 30 }, "target reps"},
		{"log retention", func(c *Config) { c.LogKeepDays = -1 }, "log keep days"},
		{"open timeout", func(c *Config) { c.Camera.OpenTimeout = -time.Second }, "open timeout"},
		{"mode", func(c *Config) { c.Launcher["turbo"] = ModeConfig{} }, "launcher mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadCameraAndSessionEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("FITCOACH_CAMERA_FRAME_RATE", "15")
	t.Setenv("FITCOACH_CAMERA_OPEN_TIMEOUT", "3s")
	t.Setenv("FITCOACH_TARGET_REPS", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.FrameRate != 15 {
		t.Errorf("frame rate = %d", cfg.Camera.FrameRate)
	}
	if cfg.Camera.OpenTimeout != 3*time.Second {
		t.Errorf("open timeout = %s", cfg.Camera.OpenTimeout)
	}
	if cfg.Session.TargetReps != 12 {
		t.Errorf("target reps = %d", cfg.Session.TargetReps)
	}

	t.Setenv("FITCOACH_TARGET_REPS", "50")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "target reps") {
		t.Fatalf("out of range env value accepted: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
