package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Camera is the part of the session controller the UI controls drive
type Camera interface {
	Start(ctx context.Context) error
	Stop()
	Toggle(ctx context.Context) error
	StateName() string
}

// Handlers contains HTTP handlers for the session controls
type Handlers struct {
	store  *Store
	camera Camera
	logger *log.Logger
}

// NewHandlers creates a new session handlers instance
func NewHandlers(store *Store, camera Camera, l *log.Logger) *Handlers {
	return &Handlers{
		store:  store,
		camera: camera,
		logger: logger.OrDiscard(l),
	}
}

// StateHandler returns the current session snapshot
func (h *Handlers) StateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.stateBody())
}

// ToggleCameraHandler starts or stops the capture loop
func (h *Handlers) ToggleCameraHandler(c *gin.Context) {
	h.cameraCommand(c, "toggle", h.camera.Toggle)
}

// StartCameraHandler starts the capture loop
func (h *Handlers) StartCameraHandler(c *gin.Context) {
	h.cameraCommand(c, "start", h.camera.Start)
}

// StopCameraHandler stops the capture loop at the next frame boundary
func (h *Handlers) StopCameraHandler(c *gin.Context) {
	h.cameraCommand(c, "stop", func(context.Context) error {
		h.camera.Stop()
		return nil
	})
}

func (h *Handlers) cameraCommand(c *gin.Context, name string, run func(context.Context) error) {
	// The capture loop outlives the request, so it must not inherit its context
	if err := run(context.WithoutCancel(c.Request.Context())); err != nil {
		h.logger.Printf("Camera %s failed: %v", name, err)
		h.respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	h.logger.Printf("Camera %s: controller=%s", name, h.camera.StateName())
	h.respond(c)
}

// ResetRepsHandler zeroes the rep count without touching the camera
func (h *Handlers) ResetRepsHandler(c *gin.Context) {
	h.store.ResetReps()
	h.logger.Printf("Reps reset")
	h.respond(c)
}

// SetTargetHandler changes the rep goal
func (h *Handlers) SetTargetHandler(c *gin.Context) {
	var req SetTargetRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, errors.New("Invalid request"))
		return
	}
	if err := h.store.SetTargetReps(req.TargetReps); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	h.respond(c)
}

// SetExerciseHandler changes the selected exercise
func (h *Handlers) SetExerciseHandler(c *gin.Context) {
	var req SetExerciseRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, errors.New("Invalid request"))
		return
	}
	ex, err := ParseExercise(req.Exercise)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.store.SetExercise(ex); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	h.logger.Printf("Exercise set to %s", ex)
	h.respond(c)
}

func (h *Handlers) stateBody() gin.H {
	return gin.H{
		"state":            NewStateResponse(h.store.Snapshot()),
		"controller_state": h.camera.StateName(),
	}
}

// respond answers JSON clients with the new state and sends plain form posts
// back to the page they came from
func (h *Handlers) respond(c *gin.Context) {
	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, backTo(c))
		return
	}
	c.JSON(http.StatusOK, h.stateBody())
}

func (h *Handlers) respondError(c *gin.Context, status int, err error) {
	if isFormPost(c) {
		h.store.SetNotice(NoticeWarning, err.Error())
		c.Redirect(http.StatusSeeOther, backTo(c))
		return
	}
	body := h.stateBody()
	body["error"] = err.Error()
	c.JSON(status, body)
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

func backTo(c *gin.Context) string {
	// Only the path is kept so a forged Referer cannot redirect off-site
	if u, err := url.Parse(c.Request.Referer()); err == nil && u.Path != "" {
		return u.RequestURI()
	}
	return "/"
}
