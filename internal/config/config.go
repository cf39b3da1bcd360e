package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "FITCOACH_CONFIG"

// Config holds application configuration
type Config struct {
	ServerPort string `yaml:"server_port"`
	LogDir     string `yaml:"log_dir"`
	// LogKeepDays is how many daily log files are kept; 0 keeps all
	LogKeepDays int `yaml:"log_keep_days"`
	// PublicURL is the address phones use to reach the UI; empty derives it from the request
	PublicURL string `yaml:"public_url"`

	Camera   CameraConfig          `yaml:"camera"`
	Session  SessionConfig         `yaml:"session"`
	Launcher map[string]ModeConfig `yaml:"launcher"`
}

// CameraConfig describes the frame source
type CameraConfig struct {
	// Driver is "ffmpeg" for a real device or "pattern" for the synthetic test card
	Driver string `yaml:"driver"`
	Device string `yaml:"device"`
	// Format is the ffmpeg input format (v4l2, avfoundation, dshow)
	Format    string `yaml:"format"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FrameRate int    `yaml:"frame_rate"`
	FFmpegBin string `yaml:"ffmpeg_bin"`
	// OpenTimeout bounds the wait for the device's first frame
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// SessionConfig holds the capture loop settings
type SessionConfig struct {
	// Interval is the pacing delay between frames
	Interval   time.Duration `yaml:"interval"`
	TargetReps int           `yaml:"target_reps"`
}

// ModeConfig describes one launcher target
type ModeConfig struct {
	Banner  string   `yaml:"banner"`
	Command []string `yaml:"command"`
	// Entry is a file that must exist before spawning; empty skips the check
	Entry string `yaml:"entry"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		ServerPort:  "8080",
		LogDir:      "logs",
		LogKeepDays: 7,
		Camera: CameraConfig{
			Driver:      "ffmpeg",
			Device:      "/dev/video0",
			Format:      "v4l2",
			Width:       640,
			Height:      480,
			FrameRate:   30,
			FFmpegBin:   "ffmpeg",
			OpenTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Interval:   100 * time.Millisecond,
			TargetReps: 10,
		},
		Launcher: map[string]ModeConfig{
			"simple": {
				Banner:  "Starting Simple AI Fitness Trainer (Bicep Curls Only)...",
				Command: []string{"python3", "core/fixed_main.py"},
				Entry:   "core/fixed_main.py",
			},
			"enhanced": {
				Banner:  "Starting Enhanced AI Fitness Trainer...",
				Command: []string{"python3", "core/main.py"},
				Entry:   "core/main.py",
			},
			"web": {
				Banner: "Starting Web Interface...",
				// nil command runs this executable with "serve"
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// FITCOACH_* environment overrides. An empty path falls back to FITCOACH_CONFIG.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerPort = envStr("FITCOACH_PORT", c.ServerPort)
	c.LogDir = envStr("FITCOACH_LOG_DIR", c.LogDir)
	c.LogKeepDays = envInt("FITCOACH_LOG_KEEP_DAYS", c.LogKeepDays)
	c.PublicURL = envStr("FITCOACH_PUBLIC_URL", c.PublicURL)
	c.Camera.Driver = envStr("FITCOACH_CAMERA_DRIVER", c.Camera.Driver)
	c.Camera.Device = envStr("FITCOACH_CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Format = envStr("FITCOACH_CAMERA_FORMAT", c.Camera.Format)
	c.Camera.Width = envInt("FITCOACH_CAMERA_WIDTH", c.Camera.Width)
	c.Camera.Height = envInt("FITCOACH_CAMERA_HEIGHT", c.Camera.Height)
	c.Camera.FrameRate = envInt("FITCOACH_CAMERA_FRAME_RATE", c.Camera.FrameRate)
	c.Camera.FFmpegBin = envStr("FITCOACH_FFMPEG_BIN", c.Camera.FFmpegBin)
	c.Camera.OpenTimeout = envDuration("FITCOACH_CAMERA_OPEN_TIMEOUT", c.Camera.OpenTimeout)
	c.Session.Interval = envDuration("FITCOACH_FRAME_INTERVAL", c.Session.Interval)
	c.Session.TargetReps = envInt("FITCOACH_TARGET_REPS", c.Session.TargetReps)
}

// Validate checks the configuration for values the rest of the app cannot handle
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %q", c.ServerPort)
	}
	if c.LogKeepDays < 0 {
		return fmt.Errorf("log keep days must not be negative, got %d", c.LogKeepDays)
	}
	switch c.Camera.Driver {
	case "ffmpeg", "pattern":
	default:
		return fmt.Errorf("camera driver must be ffmpeg or pattern, got %q", c.Camera.Driver)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.OpenTimeout < 0 {
		return fmt.Errorf("camera open timeout must not be negative, got %s", c.Camera.OpenTimeout)
	}
	if c.Session.Interval < 0 {
		return fmt.Errorf("frame interval must not be negative, got %s", c.Session.Interval)
	}
	if c.Session.TargetReps < 5 || c.Session.TargetReps > 20 {
		return fmt.Errorf("target reps must be between 5 and 20, got %d", c.Session.TargetReps)
	}
	for name := range c.Launcher {
		switch strings.ToLower(name) {
		case "simple", "enhanced", "web":
		default:
			return fmt.Errorf("unknown launcher mode %q", name)
		}
	}
	return nil
}

// GetCorsConfig returns CORS configuration for the application
func (c *Config) GetCorsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
