package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neekaru/fitcoach/internal/app"
	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/config"
	"github.com/neekaru/fitcoach/internal/controller"
	"github.com/neekaru/fitcoach/internal/media"
)

func newTestServer(t *testing.T, opts ...app.Option) (*Server, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewConfig()
	cfg.Camera.Driver = "pattern"
	cfg.Camera.Width, cfg.Camera.Height = 64, 48
	cfg.Session.Interval = time.Millisecond

	a, err := app.NewApp(cfg, nil, opts...)
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(a, cfg)
	s.SetupRoutes()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return s, a
}

type stateBody struct {
	State struct {
		CameraOn   bool   `json:"camera_on"`
		RepCount   int    `json:"rep_count"`
		TargetReps int    `json:"target_reps"`
		Exercise   string `json:"exercise"`
	} `json:"state"`
	ControllerState string `json:"controller_state"`
	Error           string `json:"error"`
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, stateBody) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var sb stateBody
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &sb)
	}
	return w, sb
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestCaptureSessionOverHTTP(t *testing.T) {
	s, a := newTestServer(t)

	w, body := do(t, s, http.MethodPost, "/api/camera/start", "{}")
	if w.Code != http.StatusOK || !body.State.CameraOn || body.ControllerState != "capturing" {
		t.Fatalf("start: %d %+v", w.Code, body)
	}

	waitFor(t, "first frame", func() bool {
		w, _ := do(t, s, http.MethodGet, "/frame.jpg", "")
		return w.Code == http.StatusOK
	})

	w, _ = do(t, s, http.MethodGet, "/health", "")
	var health struct {
		Status   string `json:"status"`
		CameraOn bool   `json:"camera_on"`
		Capture  struct {
			FramesProcessed uint64 `json:"frames_processed"`
		} `json:"capture"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || !health.CameraOn || health.Capture.FramesProcessed == 0 {
		t.Fatalf("health = %+v", health)
	}

	w, body = do(t, s, http.MethodPost, "/api/exercise", `{"exercise":"squats"}`)
	if w.Code != http.StatusOK || body.State.Exercise != "squats" {
		t.Fatalf("exercise: %d %+v", w.Code, body)
	}
	w, body = do(t, s, http.MethodPost, "/api/target", `{"target_reps":25}`)
	if w.Code != http.StatusBadRequest || body.Error == "" || body.State.TargetReps != 10 {
		t.Fatalf("target: %d %+v", w.Code, body)
	}

	w, body = do(t, s, http.MethodPost, "/api/camera/stop", "{}")
	if w.Code != http.StatusOK || body.State.CameraOn {
		t.Fatalf("stop: %d %+v", w.Code, body)
	}
	a.Controller.Wait()
	if a.Controller.State() != controller.Idle {
		t.Fatalf("controller = %s", a.Controller.State())
	}
	if w, _ := do(t, s, http.MethodGet, "/frame.jpg", ""); w.Code != http.StatusNotFound {
		t.Fatalf("frame after stop: %d", w.Code)
	}
	if body.State.RepCount != 0 {
		t.Fatalf("stub processor must not count reps, got %d", body.State.RepCount)
	}
}

func TestPageAndShareRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/?layout=mobile", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "layout-mobile") {
		t.Fatalf("page: %d", w.Code)
	}
	w, _ = do(t, s, http.MethodGet, "/api/exercises", "")
	if w.Code != http.StatusOK {
		t.Fatalf("exercises: %d", w.Code)
	}
	w, _ = do(t, s, http.MethodGet, "/share/qr.png", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	w, _ = do(t, s, http.MethodGet, "/frame.jpg", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("frame before capture: %d", w.Code)
	}
}

func TestFormPostRedirectsBack(t *testing.T) {
	s, a := newTestServer(t)
	_, _ = a.Store.AddReps(2)

	req := httptest.NewRequest(http.MethodPost, "/api/reps/reset", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://localhost:8080/?layout=mobile")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/?layout=mobile" {
		t.Fatalf("status=%d location=%s", w.Code, w.Header().Get("Location"))
	}
	if a.Store.Snapshot().RepCount != 0 {
		t.Fatal("reset not applied")
	}
}

func TestShutdownReleasesCamera(t *testing.T) {
	s, a := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(ln); err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()

	resp, err := http.Post(base+"/api/camera/start", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d", resp.StatusCode)
	}

	// an open live feed must not hold up shutdown
	stream, err := http.Get(base + "/stream.mjpg")
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if a.Store.CameraOn() || a.Controller.State() != controller.Idle {
		t.Fatalf("camera_on=%v state=%s", a.Store.CameraOn(), a.Controller.State())
	}
	if err := s.Serve(ln); err == nil {
		t.Fatal("a server is started only once")
	}
}

// unpluggableSource serves the test card until unplug is closed, then every
// read fails
type unpluggableSource struct {
	*camera.PatternSource
	unplug chan struct{}
}

func (u *unpluggableSource) Read(h *camera.Handle) (camera.Frame, error) {
	select {
	case <-u.unplug:
		return camera.Frame{}, fmt.Errorf("%w: device unplugged", camera.ErrReadFailed)
	default:
		return u.PatternSource.Read(h)
	}
}

func TestReadFailureEndsFeedAndResetsPage(t *testing.T) {
	src := &unpluggableSource{PatternSource: camera.NewPatternSource(64, 48), unplug: make(chan struct{})}
	s, a := newTestServer(t, app.WithSource(src))
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	if w, body := do(t, s, http.MethodPost, "/api/camera/start", "{}"); w.Code != http.StatusOK || !body.State.CameraOn {
		t.Fatalf("start: status=%d body=%s", w.Code, w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream.mjpg", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mr := multipart.NewReader(resp.Body, media.Boundary)
	if _, err := mr.NextPart(); err != nil {
		t.Fatalf("first part: %v", err)
	}
	close(src.unplug)

	for {
		if _, err = mr.NextPart(); err != nil {
			break
		}
	}
	if !errors.Is(err, io.EOF) {
		t.Fatalf("live feed should end after the read failure, got %v", err)
	}

	waitFor(t, "idle controller", func() bool { return a.Controller.State() == controller.Idle })
	st := a.Store.Snapshot()
	if st.CameraOn || st.Notice.Text != controller.NoticeReadFailed {
		t.Fatalf("camera_on=%v notice=%q", st.CameraOn, st.Notice.Text)
	}

	w, _ := do(t, s, http.MethodGet, "/?layout=desktop", "")
	page := w.Body.String()
	for _, want := range []string{
		`data-field="camera_on" data-value="false"`,
		`data-field="notice" data-value="Failed to capture frame"`,
		"▶️ Start",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page after read failure is missing %q", want)
		}
	}
	if strings.Contains(page, "/stream.mjpg") {
		t.Error("page still embeds the live feed after the read failure")
	}
}
