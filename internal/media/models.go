package media

import "time"

// Boundary separates parts of the MJPEG stream
const Boundary = "frame"

// DefaultQuality is the JPEG quality of published frames
const DefaultQuality = 80

// Snapshot is one encoded frame
type Snapshot struct {
	Seq     uint64
	TraceID string
	At      time.Time
	JPEG    []byte
}

// HubStats describes the frame hub
type HubStats struct {
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
	Subscribers int    `json:"subscribers"`
}
