package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/controller"
	"github.com/neekaru/fitcoach/internal/session"
)

func testFrame(seq uint64) camera.Frame {
	return camera.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Image:     image.NewRGBA(image.Rect(0, 0, 32, 24)),
		TraceID:   "trace",
	}
}

func TestHubPublishAndLatest(t *testing.T) {
	hub := NewHub(0, nil)
	if _, ok := hub.Latest(); ok {
		t.Fatal("new hub should have no frame")
	}
	if err := hub.Publish(camera.Frame{}); err == nil {
		t.Fatal("publishing a frame without an image should fail")
	}
	if err := hub.Publish(testFrame(1)); err != nil {
		t.Fatal(err)
	}
	snap, ok := hub.Latest()
	if !ok || snap.Seq != 1 {
		t.Fatalf("latest = %+v, %v", snap, ok)
	}
	if _, err := jpeg.Decode(bytes.NewReader(snap.JPEG)); err != nil {
		t.Fatalf("latest frame is not a JPEG: %v", err)
	}
}

func TestHubDropsForSlowViewers(t *testing.T) {
	hub := NewHub(50, nil)
	frames, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for seq := uint64(1); seq <= 3; seq++ {
		if err := hub.Publish(testFrame(seq)); err != nil {
			t.Fatal(err)
		}
	}
	got := <-frames
	if got.Seq != 3 {
		t.Fatalf("viewer should get the newest frame, got %d", got.Seq)
	}
	st := hub.Stats()
	if st.Published != 3 || st.Dropped != 2 || st.Subscribers != 1 {
		t.Fatalf("stats = %+v", st)
	}
	unsubscribe()
	unsubscribe()
	if hub.Stats().Subscribers != 0 {
		t.Fatal("unsubscribe did not remove the viewer")
	}
}

func TestHubObservesFrameEvents(t *testing.T) {
	hub := NewHub(0, nil)
	hub.OnEvent(&controller.StateEvent{From: controller.Idle, To: controller.Capturing})
	hub.OnEvent(&controller.FrameEvent{Frame: testFrame(7), Session: session.State{}})
	snap, ok := hub.Latest()
	if !ok || snap.Seq != 7 {
		t.Fatalf("latest = %+v, %v", snap, ok)
	}
}

func TestHubResetsWhenCaptureEnds(t *testing.T) {
	hub := NewHub(0, nil)
	frames, unsubscribe := hub.Subscribe()
	if err := hub.Publish(testFrame(3)); err != nil {
		t.Fatal(err)
	}
	<-frames

	hub.OnEvent(&controller.StateEvent{From: controller.Capturing, To: controller.Stopped})
	if _, ok := hub.Latest(); !ok {
		t.Fatal("frame dropped before the device was released")
	}

	hub.OnEvent(&controller.StateEvent{From: controller.Stopped, To: controller.Idle})
	if _, ok := <-frames; ok {
		t.Fatal("viewer channel should be closed")
	}
	if _, ok := hub.Latest(); ok {
		t.Fatal("stale frame kept after capture ended")
	}
	if n := hub.Stats().Subscribers; n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
	unsubscribe()

	w := httptest.NewRecorder()
	newRouter(hub).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/frame.jpg", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("snapshot after capture ended: status = %d", w.Code)
	}
}

func newRouter(hub *Hub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandlers(hub, nil)
	r.GET("/frame.jpg", h.SnapshotHandler)
	r.GET("/stream.mjpg", h.StreamHandler)
	return r
}

func TestSnapshotHandler(t *testing.T) {
	hub := NewHub(0, nil)
	r := newRouter(hub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/frame.jpg", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	if err := hub.Publish(testFrame(4)); err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/frame.jpg", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("status=%d type=%s", w.Code, w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Frame-Seq") != "4" {
		t.Fatalf("seq header = %s", w.Header().Get("X-Frame-Seq"))
	}
}

func TestStreamHandler(t *testing.T) {
	hub := NewHub(0, nil)
	if err := hub.Publish(testFrame(1)); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newRouter(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream.mjpg", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] != Boundary {
		t.Fatalf("content type = %s", resp.Header.Get("Content-Type"))
	}

	mr := multipart.NewReader(resp.Body, Boundary)
	first, err := mr.NextPart()
	if err != nil {
		t.Fatalf("first part: %v", err)
	}
	if first.Header.Get("X-Frame-Seq") != "1" {
		t.Fatalf("first part seq = %s", first.Header.Get("X-Frame-Seq"))
	}

	// wait until the handler subscribed before publishing the next frame
	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Subscribers == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := hub.Publish(testFrame(2)); err != nil {
		t.Fatal(err)
	}
	second, err := mr.NextPart()
	if err != nil {
		t.Fatalf("second part: %v", err)
	}
	if second.Header.Get("X-Frame-Seq") != "2" {
		t.Fatalf("second part seq = %s", second.Header.Get("X-Frame-Seq"))
	}
}

func TestStreamEndsWhenCaptureEnds(t *testing.T) {
	hub := NewHub(0, nil)
	if err := hub.Publish(testFrame(1)); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newRouter(hub))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream.mjpg", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mr := multipart.NewReader(resp.Body, Boundary)
	if _, err := mr.NextPart(); err != nil {
		t.Fatalf("first part: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().Subscribers == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.OnEvent(&controller.StateEvent{From: controller.Stopped, To: controller.Idle})
	if _, err := mr.NextPart(); !errors.Is(err, io.EOF) {
		t.Fatalf("stream should end after capture stops, got %v", err)
	}
}
