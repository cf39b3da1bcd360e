// Package launcher starts one of the trainer front ends as a subprocess.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/neekaru/fitcoach/internal/config"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Exit codes returned without a subprocess
const (
	ExitSpawnFailed = 1
	ExitUsage       = 2
)

const (
	title         = "🏋️ AI FITNESS TRAINER - Choose Your Interface"
	prompt        = "\nEnter your choice (1-3, default=1): "
	invalidChoice = "Invalid choice. Running enhanced trainer..."
)

var (
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
)

var menuEntries = []struct {
	Key  string
	Mode Mode
	Text string
}{
	{"1", Enhanced, "💪 Enhanced Trainer - 6 Exercises + Analytics (RECOMMENDED)"},
	{"2", Simple, "🔧 Simple Trainer - Bicep Curls Only (Testing)"},
	{"3", Web, "🌐 Web Interface - Browser-based UI"},
}

// Launcher dispatches a mode to its subprocess
type Launcher struct {
	targets map[Mode]Target
	runner  Runner
	in      *bufio.Reader
	out     io.Writer
	logger  *log.Logger
}

// New creates a launcher. in feeds the interactive menu and out receives the
// banner and prompts.
func New(targets map[Mode]Target, runner Runner, in io.Reader, out io.Writer, l *log.Logger) *Launcher {
	return &Launcher{
		targets: targets,
		runner:  runner,
		in:      bufio.NewReader(in),
		out:     out,
		logger:  logger.OrDiscard(l),
	}
}

// TargetsFromConfig builds the launch table. A mode without a command runs
// self with the serve sub-command.
func TargetsFromConfig(modes map[string]config.ModeConfig, self string) map[Mode]Target {
	targets := make(map[Mode]Target, len(modes))
	for name, mc := range modes {
		m, err := ParseMode(name)
		if err != nil {
			continue
		}
		t := Target{Banner: mc.Banner, Command: append([]string(nil), mc.Command...), Entry: mc.Entry}
		if len(t.Command) == 0 {
			t.Command = []string{self, "serve"}
		}
		targets[m] = t
	}
	return targets
}

// Targets returns the configured launch table in menu order
func (l *Launcher) Targets() []Entry {
	out := make([]Entry, 0, len(l.targets))
	for _, m := range Modes {
		if t, ok := l.targets[m]; ok {
			out = append(out, Entry{Mode: m, Target: t})
		}
	}
	return out
}

// Dispatch starts the trainer for mode and returns the exit code to leave
// with. An empty mode asks the operator through the interactive menu. Unknown
// modes are a usage error; trainers that cannot start yield a *SpawnError.
func (l *Launcher) Dispatch(ctx context.Context, mode string) (int, error) {
	l.banner()

	var m Mode
	if strings.TrimSpace(mode) == "" {
		m = l.choose()
	} else {
		var err error
		if m, err = ParseMode(mode); err != nil {
			return ExitUsage, err
		}
	}
	return l.spawn(ctx, m)
}

func (l *Launcher) spawn(ctx context.Context, m Mode) (int, error) {
	t, ok := l.targets[m]
	if !ok || len(t.Command) == 0 {
		return ExitSpawnFailed, &SpawnError{Mode: m, Err: errors.New("no command configured")}
	}
	if t.Entry != "" {
		if _, err := os.Stat(t.Entry); err != nil {
			return ExitSpawnFailed, &SpawnError{Mode: m, Err: fmt.Errorf("entry point missing: %w", err)}
		}
	}

	if t.Banner != "" {
		fmt.Fprintln(l.out, t.Banner)
	}
	l.logger.Printf("Launching %s trainer: %s", m, strings.Join(t.Command, " "))

	code, err := l.runner.Run(ctx, t.Command)
	if err != nil {
		return ExitSpawnFailed, &SpawnError{Mode: m, Err: err}
	}
	l.logger.Printf("%s trainer exited with code %d", m, code)
	return code, nil
}

func (l *Launcher) banner() {
	rule := ruleStyle.Render(strings.Repeat("=", 60))
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, titleStyle.Render(title))
	fmt.Fprintln(l.out, rule)
}

// choose runs the numeric menu. Blank input or EOF picks the default; any
// other unknown answer warns and picks the default too.
func (l *Launcher) choose() Mode {
	fmt.Fprintln(l.out, "Available Interfaces:")
	for _, e := range menuEntries {
		fmt.Fprintf(l.out, "%s. %s\n", e.Key, e.Text)
	}
	fmt.Fprint(l.out, prompt)

	line, err := l.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		l.logger.Printf("Menu input failed: %v", err)
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		choice = menuEntries[0].Key
	}
	for _, e := range menuEntries {
		if e.Key == choice {
			return e.Mode
		}
	}
	fmt.Fprintln(l.out, warningStyle.Render(invalidChoice))
	l.logger.Printf("Invalid menu choice %q, using %s", choice, DefaultMode)
	return DefaultMode
}
