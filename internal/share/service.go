package share

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the QR image edge in pixels
const DefaultSize = 256

// Service builds the phone hand-off link and its QR code
type Service struct {
	publicURL string
	size      int
}

// NewService creates a share service. An empty publicURL derives the link
// from each request's host.
func NewService(publicURL string) *Service {
	return &Service{publicURL: strings.TrimRight(publicURL, "/"), size: DefaultSize}
}

// MobileURL returns the address that opens the page in the Mobile layout
func (s *Service) MobileURL(r *http.Request) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		base = (&url.URL{Scheme: scheme, Host: r.Host}).String()
	}
	return base + "/?layout=mobile"
}

// QRCode returns the QR code for link as PNG bytes
func (s *Service) QRCode(link string) ([]byte, error) {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	png, err := qr.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}

// DataURL returns the QR code for link as a base64 data URL
func (s *Service) DataURL(link string) (string, error) {
	png, err := s.QRCode(link)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
