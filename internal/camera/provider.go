package camera

import (
	"log"

	"github.com/neekaru/fitcoach/internal/config"
)

// NewSource builds the source selected by the camera config
func NewSource(cfg config.CameraConfig, l *log.Logger) Source {
	if cfg.Driver == "pattern" {
		return NewPatternSource(cfg.Width, cfg.Height)
	}
	return NewFFmpegSource(FFmpegConfig{
		Device:      cfg.Device,
		Format:      cfg.Format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		FrameRate:   cfg.FrameRate,
		Binary:      cfg.FFmpegBin,
		OpenTimeout: cfg.OpenTimeout,
	}, l)
}
