package share

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Handlers contains HTTP handlers for the phone hand-off
type Handlers struct {
	service *Service
	logger  *log.Logger
}

// NewHandlers creates a new share handlers instance
func NewHandlers(service *Service, l *log.Logger) *Handlers {
	return &Handlers{service: service, logger: logger.OrDiscard(l)}
}

// QRImageHandler serves a QR code that opens the mobile page. With
// format=json it answers the link and a data URL instead of the PNG.
func (h *Handlers) QRImageHandler(c *gin.Context) {
	link := h.service.MobileURL(c.Request)

	if c.Query("format") == "json" {
		data, err := h.service.DataURL(link)
		if err != nil {
			h.logger.Printf("QR generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": link, "qrcode": data})
		return
	}

	png, err := h.service.QRCode(link)
	if err != nil {
		h.logger.Printf("QR generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
