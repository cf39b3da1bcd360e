// Package layout arranges the trainer page for phones and larger screens.
//
// Panel bodies are rendered once per request by shared named templates; the
// Mobile and Desktop layouts only decide where the rendered bodies go.
package layout

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/neekaru/fitcoach/internal/session"
)

// MobileMaxWidth is the widest viewport, in pixels, that still gets the Mobile layout
const MobileMaxWidth = 767

//go:embed templates/*.html
var templateFS embed.FS

// PanelID names a page panel
type PanelID string

const (
	LiveFeedPanel  PanelID = "live_feed"
	FormGuidePanel PanelID = "form_guide"
	StatsPanel     PanelID = "stats"
	ControlsPanel  PanelID = "controls"
)

var panelTitles = map[PanelID]string{
	LiveFeedPanel:  "📹 Live Feed",
	FormGuidePanel: "💡 Form Guide",
	StatsPanel:     "📊 Stats",
	ControlsPanel:  "⚙️ Settings",
}

// Panel is a titled, pre-rendered page section
type Panel struct {
	ID    PanelID
	Title string
	Body  template.HTML
}

// Column is a vertical stack of panels
type Column struct {
	Name   string
	Panels []Panel
}

// View is the page model for one layout
type View struct {
	Layout  session.Layout
	State   session.StateResponse
	Columns []Column
	// Drawer holds the controls on Mobile, where they collapse above the feed
	Drawer *Panel
}

// Panel returns the panel with the given id, wherever the layout placed it
func (v View) Panel(id PanelID) (Panel, bool) {
	if v.Drawer != nil && v.Drawer.ID == id {
		return *v.Drawer, true
	}
	for _, col := range v.Columns {
		for _, p := range col.Panels {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Panel{}, false
}

// ResolveLayout picks the layout from an explicit hint ("mobile" or
// "desktop") or, failing that, from the viewport width in pixels.
func ResolveLayout(hint, width string) session.Layout {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "mobile":
		return session.Mobile
	case "desktop":
		return session.Desktop
	}
	if px, err := strconv.Atoi(strings.TrimSpace(width)); err == nil && px > 0 && px <= MobileMaxWidth {
		return session.Mobile
	}
	return session.Desktop
}

// Presenter renders the trainer page
type Presenter struct {
	tmpl *template.Template
}

// NewPresenter parses the embedded page templates
func NewPresenter() (*Presenter, error) {
	tmpl, err := template.New("layout").Funcs(template.FuncMap{
		"percent": func(p float64) string { return fmt.Sprintf("%.0f", p*100) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Presenter{tmpl: tmpl}, nil
}

type exerciseOption struct {
	Slug     string
	Label    string
	Selected bool
}

type panelData struct {
	State     session.StateResponse
	Guide     FormGuide
	Exercises []exerciseOption
	MinTarget int
	MaxTarget int
}

// Build renders the panel bodies for state and places them for state.Layout
func (p *Presenter) Build(state session.State) (View, error) {
	data := panelData{
		State:     session.NewStateResponse(state),
		Guide:     Guide(state.Exercise).WithFlags(state.FormFlags),
		MinTarget: session.MinTargetReps,
		MaxTarget: session.MaxTargetReps,
	}
	for _, e := range session.Exercises {
		data.Exercises = append(data.Exercises, exerciseOption{
			Slug:     e.Slug(),
			Label:    e.String(),
			Selected: e == state.Exercise,
		})
	}

	panels := make(map[PanelID]Panel, len(panelTitles))
	for id, title := range panelTitles {
		var buf bytes.Buffer
		if err := p.tmpl.ExecuteTemplate(&buf, string(id), data); err != nil {
			return View{}, fmt.Errorf("render %s panel: %w", id, err)
		}
		panels[id] = Panel{ID: id, Title: title, Body: template.HTML(buf.String())}
	}

	v := View{Layout: state.Layout, State: data.State}
	if state.Layout == session.Mobile {
		controls := panels[ControlsPanel]
		v.Drawer = &controls
		v.Columns = []Column{
			{Name: "single", Panels: []Panel{panels[LiveFeedPanel], panels[FormGuidePanel], panels[StatsPanel]}},
		}
		return v, nil
	}
	v.Columns = []Column{
		{Name: "main", Panels: []Panel{panels[LiveFeedPanel]}},
		{Name: "side", Panels: []Panel{panels[FormGuidePanel]}},
		{Name: "rail", Panels: []Panel{panels[ControlsPanel], panels[StatsPanel]}},
	}
	return v, nil
}

// Render writes the full page for state to w
func (p *Presenter) Render(w io.Writer, state session.State) error {
	v, err := p.Build(state)
	if err != nil {
		return err
	}
	if err := p.tmpl.ExecuteTemplate(w, "page", v); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
