package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neekaru/fitcoach/internal/app"
	"github.com/neekaru/fitcoach/internal/config"
	"github.com/neekaru/fitcoach/internal/launcher"
	"github.com/neekaru/fitcoach/internal/server"
	"github.com/neekaru/fitcoach/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// exitError carries the process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			_, _ = fmt.Fprintln(os.Stderr, ee.err)
		}
		return ee.code
	}
	_, _ = fmt.Fprintln(os.Stderr, err)
	return 1
}

func newRootCmd() *cobra.Command {
	var configPath, mode string

	root := &cobra.Command{
		Use:           "fitcoach",
		Short:         "AI Fitness Trainer launcher",
		Long:          "Starts one trainer front end. Without --mode an interactive menu asks which one.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLauncher(cmd, configPath)
			if err != nil {
				return err
			}

			// The trainer shares the terminal and handles Ctrl-C itself; the
			// launcher stays alive to report its exit code.
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)

			code, err := l.Dispatch(context.Background(), mode)
			if err != nil || code != 0 {
				return &exitError{code: code, err: err}
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	root.Flags().StringVar(&mode, "mode", "", "run mode: simple|enhanced|web (default: interactive menu)")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: launcher.ExitUsage, err: fmt.Errorf("%w\n%s", err, cmd.UsageString())}
	})

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newModesCmd(&configPath))
	return root
}

func newLauncher(cmd *cobra.Command, configPath string) (*launcher.Launcher, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	l := log.New(cmd.ErrOrStderr(), "launcher: ", log.LstdFlags)
	targets := launcher.TargetsFromConfig(cfg.Launcher, self)
	return launcher.New(targets, launcher.NewExecRunner(), cmd.InOrStdin(), cmd.OutOrStdout(), l), nil
}

func newModesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the configured trainer modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLauncher(cmd, *configPath)
			if err != nil {
				return err
			}
			for _, e := range l.Targets() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-9s %v", e.Mode, e.Target.Command)
				if e.Target.Entry != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " (entry %s)", e.Target.Entry)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser-based trainer",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.ServerPort = port
				if err := cfg.Validate(); err != nil {
					return &exitError{code: launcher.ExitUsage, err: err}
				}
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides server_port)")
	return cmd
}

func serve(cfg *config.Config) error {
	appLogger, err := logger.SetupLogging(cfg.LogDir, cfg.LogKeepDays)
	if err != nil {
		appLogger = logger.SetupFallbackLogger()
		appLogger.Printf("Logging setup failed: %v", err)
	}
	defer func() {
		if err := logger.CloseLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing logger: %v\n", err)
		}
	}()

	a, err := app.NewApp(cfg, appLogger)
	if err != nil {
		return err
	}

	srv := server.NewServer(a, cfg)
	srv.SetupRoutes()
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
