package media

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Handlers contains HTTP handlers for the live feed
type Handlers struct {
	hub    *Hub
	logger *log.Logger
}

// NewHandlers creates a new media handlers instance
func NewHandlers(hub *Hub, l *log.Logger) *Handlers {
	return &Handlers{hub: hub, logger: logger.OrDiscard(l)}
}

// SnapshotHandler returns the latest annotated frame
func (h *Handlers) SnapshotHandler(c *gin.Context) {
	snap, ok := h.hub.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No frame available"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Seq", strconv.FormatUint(snap.Seq, 10))
	c.Data(http.StatusOK, "image/jpeg", snap.JPEG)
}

// StreamHandler serves the live feed as multipart MJPEG until the viewer leaves
func (h *Handlers) StreamHandler(c *gin.Context) {
	frames, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	mw := multipart.NewWriter(c.Writer)
	if err := mw.SetBoundary(Boundary); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+Boundary)
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)

	h.logger.Printf("Live feed viewer connected from %s", c.ClientIP())
	defer h.logger.Printf("Live feed viewer %s left", c.ClientIP())

	if snap, ok := h.hub.Latest(); ok {
		if err := writePart(mw, c, snap); err != nil {
			return
		}
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-frames:
			if !ok {
				// capture ended
				_ = mw.Close()
				c.Writer.Flush()
				return
			}
			if err := writePart(mw, c, snap); err != nil {
				return
			}
		}
	}
}

func writePart(mw *multipart.Writer, c *gin.Context, snap Snapshot) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "image/jpeg")
	header.Set("Content-Length", strconv.Itoa(len(snap.JPEG)))
	header.Set("X-Frame-Seq", strconv.FormatUint(snap.Seq, 10))
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(snap.JPEG); err != nil {
		return fmt.Errorf("write part: %w", err)
	}
	c.Writer.Flush()
	return nil
}
