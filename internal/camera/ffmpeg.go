package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"github.com/neekaru/fitcoach/pkg/logger"
)

// FFmpegConfig describes the capture device
type FFmpegConfig struct {
	// Device is the ffmpeg input, e.g. /dev/video0, "0" (avfoundation) or "video=Cam" (dshow)
	Device string
	// Format is the ffmpeg input format, e.g. v4l2
	Format    string
	Width     int
	Height    int
	FrameRate int
	// Binary overrides the ffmpeg executable
	Binary string
	// OpenTimeout bounds the wait for the first frame; 0 uses DefaultOpenTimeout
	OpenTimeout time.Duration
}

// DefaultOpenTimeout is how long Open waits for a device to deliver its first frame
const DefaultOpenTimeout = 10 * time.Second

// waitDelay bounds how long reaping ffmpeg waits on its stderr copy
const waitDelay = time.Second

// FFmpegSource captures frames by running ffmpeg against the device and reading
// raw RGBA frames from its stdout
type FFmpegSource struct {
	cfg    FFmpegConfig
	logger *log.Logger

	claim claim

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *lockedBuffer
	primed *Frame
	seq    uint64
}

// NewFFmpegSource creates a new ffmpeg capture source
func NewFFmpegSource(cfg FFmpegConfig, l *log.Logger) *FFmpegSource {
	return &FFmpegSource{cfg: cfg, logger: logger.OrDiscard(l)}
}

// Args returns the ffmpeg command line for the configured device
func (s *FFmpegSource) Args() []string {
	return s.command().Args
}

func (s *FFmpegSource) frameSize() int {
	return s.cfg.Width * s.cfg.Height * 4
}

func (s *FFmpegSource) command() *exec.Cmd {
	size := fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height)
	in := ffmpeg_go.KwArgs{"video_size": size}
	if s.cfg.Format != "" {
		in["f"] = s.cfg.Format
	}
	if s.cfg.FrameRate > 0 {
		in["framerate"] = s.cfg.FrameRate
	}

	stream := ffmpeg_go.Input(s.cfg.Device, in).
		Output("pipe:", ffmpeg_go.KwArgs{"format": "rawvideo", "pix_fmt": "rgba", "s": size}).
		GlobalArgs("-loglevel", "error")
	if s.stderr != nil {
		stream = stream.WithErrorOutput(s.stderr)
	}
	cmd := stream.Compile()
	cmd.WaitDelay = waitDelay

	if s.cfg.Binary != "" && s.cfg.Binary != "ffmpeg" {
		cmd.Args[0] = s.cfg.Binary
		cmd.Path = s.cfg.Binary
		cmd.Err = nil
		if filepath.Base(s.cfg.Binary) == s.cfg.Binary {
			if lp, err := exec.LookPath(s.cfg.Binary); err == nil {
				cmd.Path = lp
			} else {
				cmd.Err = err
			}
		}
	}
	return cmd
}

// Open starts ffmpeg and waits for the first frame. A device that produces no
// frame before ctx ends or the open timeout expires is killed and reported as
// unavailable rather than as a read error.
func (s *FFmpegSource) Open(ctx context.Context) (*Handle, error) {
	return s.claim.acquire(func(h *Handle) error {
		if isDevicePath(s.cfg.Device) {
			if _, err := os.Stat(s.cfg.Device); err != nil {
				return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.stderr = &lockedBuffer{}
		cmd := s.command()
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%w: start ffmpeg: %v", ErrDeviceUnavailable, err)
		}
		s.cmd, s.stdout, s.seq = cmd, stdout, 0

		s.logger.Printf("Camera %s opened (handle %s, pid %d)", s.cfg.Device, h.ID, cmd.Process.Pid)

		first, err := s.awaitFirstFrame(ctx, stdout)
		if err != nil {
			s.stopProcess()
			return fmt.Errorf("%w: %s", ErrDeviceUnavailable, s.errorDetail(err))
		}
		s.seq = first.Seq
		s.primed = &first
		return nil
	})
}

type frameResult struct {
	frame Frame
	err   error
}

// awaitFirstFrame reads the first frame off stdout unless ctx ends or the open
// timeout expires first. On expiry ffmpeg is killed so the pending read
// returns before this does. Callers hold s.mu.
func (s *FFmpegSource) awaitFirstFrame(ctx context.Context, stdout io.Reader) (Frame, error) {
	timeout := s.cfg.OpenTimeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	result := make(chan frameResult, 1)
	go func() {
		f, err := s.decode(stdout)
		f.Seq = 1
		result <- frameResult{f, err}
	}()

	var cause error
	select {
	case r := <-result:
		return r.frame, r.err
	case <-ctx.Done():
		cause = ctx.Err()
	case <-timer.C:
		cause = fmt.Errorf("no frame within %s", timeout)
	}
	s.stopProcess()
	<-result
	return Frame{}, cause
}

// Read returns the next frame from the device
func (s *FFmpegSource) Read(h *Handle) (Frame, error) {
	if err := s.claim.check(h); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primed != nil {
		f := *s.primed
		s.primed = nil
		return f, nil
	}
	f, err := s.readFrame()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %s", ErrReadFailed, s.errorDetail(err))
	}
	return f, nil
}

// Close stops ffmpeg and releases the device
func (s *FFmpegSource) Close(h *Handle) error {
	return s.claim.release(h, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stopProcess()
		s.logger.Printf("Camera %s released (handle %s)", s.cfg.Device, h.ID)
		return nil
	})
}

// readFrame reads one raw frame; callers hold s.mu
func (s *FFmpegSource) readFrame() (Frame, error) {
	if s.stdout == nil {
		return Frame{}, ErrNotOpen
	}
	f, err := s.decode(s.stdout)
	if err != nil {
		return Frame{}, err
	}
	s.seq++
	f.Seq = s.seq
	return f, nil
}

func (s *FFmpegSource) decode(r io.Reader) (Frame, error) {
	buf := make([]byte, s.frameSize())
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, err
	}
	return Frame{
		Timestamp: time.Now(),
		Image: &image.RGBA{
			Pix:    buf,
			Stride: s.cfg.Width * 4,
			Rect:   image.Rect(0, 0, s.cfg.Width, s.cfg.Height),
		},
		TraceID: uuid.NewString(),
	}, nil
}

// stopProcess kills ffmpeg and reaps it; callers hold s.mu
func (s *FFmpegSource) stopProcess() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cmd, s.stdout, s.primed = nil, nil, nil
}

func (s *FFmpegSource) errorDetail(err error) string {
	if s.stderr == nil {
		return err.Error()
	}
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return err.Error()
	}
	if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
		msg = msg[i+1:]
	}
	return fmt.Sprintf("%v (%s)", err, msg)
}

// lockedBuffer collects ffmpeg stderr, which exec copies from its own goroutine
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func isDevicePath(device string) bool {
	return strings.HasPrefix(device, "/") || strings.HasPrefix(device, "./")
}
