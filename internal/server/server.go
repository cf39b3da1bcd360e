package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/internal/app"
	"github.com/neekaru/fitcoach/internal/config"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	app    *app.App
	config *config.Config

	mu  sync.Mutex
	srv *http.Server
	// cancels the request contexts so open live feeds end on shutdown
	cancelRequests context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(app *app.App, config *config.Config) *Server {
	// Set up gin to log to the same log file
	gin.DefaultWriter = io.MultiWriter(os.Stdout, logger.GetWriter(app.Logger))
	gin.DefaultErrorWriter = io.MultiWriter(os.Stderr, logger.GetWriter(app.Logger))

	r := gin.Default()

	// Configure CORS
	corsConfig := config.GetCorsConfig()
	r.Use(cors.New(corsConfig))

	return &Server{
		router: r,
		app:    app,
		config: config,
	}
}

// Router returns the gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start listens on the configured port and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.config.ServerPort)
	if err != nil {
		return fmt.Errorf("listen on :%s: %w", s.config.ServerPort, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln in the background
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server already started")
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:     s.router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	s.srv, s.cancelRequests = srv, cancel
	s.mu.Unlock()

	go func() {
		s.app.Logger.Printf("🚀 Fitness trainer running on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.app.Logger.Printf("Server error: %v\n", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server, then stops capture
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, cancel := s.srv, s.cancelRequests
	s.mu.Unlock()

	s.app.Logger.Println("🚫 Shutting down server...")

	if srv != nil {
		cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.app.Logger.Printf("Server forced to shutdown: %v\n", err)
			srv.Close()
		}
	}

	if err := s.app.Shutdown(ctx); err != nil {
		s.app.Logger.Printf("Camera release failed: %v\n", err)
		return fmt.Errorf("camera release failed: %w", err)
	}

	s.app.Logger.Println("Server exited")
	return nil
}
