package layout

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/internal/session"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Handlers contains HTTP handlers for the trainer page
type Handlers struct {
	store     *session.Store
	presenter *Presenter
	logger    *log.Logger
}

// NewHandlers creates a new page handlers instance
func NewHandlers(store *session.Store, presenter *Presenter, l *log.Logger) *Handlers {
	return &Handlers{store: store, presenter: presenter, logger: logger.OrDiscard(l)}
}

// PageHandler renders the page in the layout picked from the layout and width
// query parameters
func (h *Handlers) PageHandler(c *gin.Context) {
	layout := ResolveLayout(c.Query("layout"), c.Query("width"))
	h.store.SetLayout(layout)
	st := h.store.Snapshot()
	// another visitor may have changed the shared hint since SetLayout
	st.Layout = layout

	var buf bytes.Buffer
	if err := h.presenter.Render(&buf, st); err != nil {
		h.logger.Printf("Page render failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ExerciseInfo describes a selectable exercise
type ExerciseInfo struct {
	Slug     string    `json:"slug"`
	Label    string    `json:"label"`
	Selected bool      `json:"selected"`
	Guide    FormGuide `json:"guide"`
}

// ExercisesHandler lists the exercises with their form guides
func (h *Handlers) ExercisesHandler(c *gin.Context) {
	current := h.store.Snapshot().Exercise
	list := make([]ExerciseInfo, 0, len(session.Exercises))
	for _, e := range session.Exercises {
		list = append(list, ExerciseInfo{
			Slug:     e.Slug(),
			Label:    e.String(),
			Selected: e == current,
			Guide:    Guide(e),
		})
	}
	c.JSON(http.StatusOK, gin.H{"exercises": list})
}
