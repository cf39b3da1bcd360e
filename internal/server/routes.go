package server

import (
	"github.com/neekaru/fitcoach/internal/health"
	"github.com/neekaru/fitcoach/internal/layout"
	"github.com/neekaru/fitcoach/internal/media"
	"github.com/neekaru/fitcoach/internal/session"
	"github.com/neekaru/fitcoach/internal/share"
)

// SetupRoutes configures all the routes for the application
func (s *Server) SetupRoutes() {
	// Register health check handlers
	healthHandlers := health.NewHandlers(s.app)
	s.router.GET("/health", healthHandlers.HealthCheckHandler)
	s.router.GET("/health/", healthHandlers.HealthCheckHandlerWithSlash)

	// Register page handlers
	pageHandlers := layout.NewHandlers(s.app.Store, s.app.Presenter, s.app.Logger)
	s.router.GET("/", pageHandlers.PageHandler)
	s.router.GET("/api/exercises", pageHandlers.ExercisesHandler)

	// Register session handlers
	sessionHandlers := session.NewHandlers(s.app.Store, s.app.Controller, s.app.Logger)
	api := s.router.Group("/api")
	api.GET("/state", sessionHandlers.StateHandler)
	api.POST("/camera/toggle", sessionHandlers.ToggleCameraHandler)
	api.POST("/camera/start", sessionHandlers.StartCameraHandler)
	api.POST("/camera/stop", sessionHandlers.StopCameraHandler)
	api.POST("/reps/reset", sessionHandlers.ResetRepsHandler)
	api.POST("/target", sessionHandlers.SetTargetHandler)
	api.POST("/exercise", sessionHandlers.SetExerciseHandler)

	// Register live feed handlers
	mediaHandlers := media.NewHandlers(s.app.Hub, s.app.Logger)
	s.router.GET("/stream.mjpg", mediaHandlers.StreamHandler)
	s.router.GET("/frame.jpg", mediaHandlers.SnapshotHandler)

	// Register phone hand-off handlers
	shareHandlers := share.NewHandlers(s.app.Share, s.app.Logger)
	s.router.GET("/share/qr.png", shareHandlers.QRImageHandler)
}
