package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/config"
	"github.com/neekaru/fitcoach/internal/controller"
	"github.com/neekaru/fitcoach/internal/layout"
	"github.com/neekaru/fitcoach/internal/media"
	"github.com/neekaru/fitcoach/internal/pose"
	"github.com/neekaru/fitcoach/internal/session"
	"github.com/neekaru/fitcoach/internal/share"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// App holds shared application state and resources
type App struct {
	Config     *config.Config
	Store      *session.Store
	Controller *controller.Controller
	Hub        *media.Hub
	Presenter  *layout.Presenter
	Share      *share.Service

	Logger    *log.Logger
	StartTime time.Time // Track startup time for health checks
}

// Option customises NewApp
type Option func(*options)

type options struct {
	source    camera.Source
	processor pose.Processor
}

// WithSource replaces the frame source picked from the camera config
func WithSource(s camera.Source) Option {
	return func(o *options) { o.source = s }
}

// WithProcessor replaces the stub pose processor
func WithProcessor(p pose.Processor) Option {
	return func(o *options) { o.processor = p }
}

// NewApp creates a new App instance with initialized resources
func NewApp(cfg *config.Config, l *log.Logger, opts ...Option) (*App, error) {
	l = logger.OrDiscard(l)

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = camera.NewSource(cfg.Camera, l)
	}

	presenter, err := layout.NewPresenter()
	if err != nil {
		return nil, fmt.Errorf("failed to load page templates: %w", err)
	}

	store := session.NewStoreWithTarget(cfg.Session.TargetReps)
	ctrl := controller.New(store, o.source, controller.Options{
		Interval:  cfg.Session.Interval,
		Processor: o.processor,
		Logger:    l,
	})
	hub := media.NewHub(media.DefaultQuality, l)
	ctrl.Subscribe(hub)
	ctrl.Subscribe(controller.NewFilteredObserver(controller.ObserverFunc(func(e controller.Event) {
		switch ev := e.(type) {
		case *controller.NoticeEvent:
			l.Printf("Notice [%s]: %s", ev.Notice.Level, ev.Notice.Text)
		case *controller.StateEvent:
			l.Printf("Capture %s -> %s", ev.From, ev.To)
		}
	}), controller.EventTypeNotice, controller.EventTypeState))

	l.Printf("Session %s ready (camera driver %s, target %d reps)", store.Snapshot().ID, cfg.Camera.Driver, store.Snapshot().TargetReps)

	return &App{
		Config:     cfg,
		Store:      store,
		Controller: ctrl,
		Hub:        hub,
		Presenter:  presenter,
		Share:      share.NewService(cfg.PublicURL),
		Logger:     l,
		StartTime:  time.Now(),
	}, nil
}

// Shutdown stops capture and waits for the camera to be released
func (a *App) Shutdown(ctx context.Context) error {
	return a.Controller.Shutdown(ctx)
}
