package http

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"cruscotto/internal/dashboard"
	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

// HeaderChartState reports the pipeline outcome on /charts responses.
const HeaderChartState = "X-Chart-State"

var templateFuncs = template.FuncMap{
	"title": func(name string) string {
		switch name {
		case render.CategoryChart:
			return "Spending by category"
		case render.AccountChart:
			return "Account balances"
		}
		return name
	},
}

// surfaceView is one surface of the dashboard page.
type surfaceView struct {
	Name    string
	Width   int
	Height  int
	Drawn   bool
	State   string
	Message string
	// Image is the drawn surface as a data URI.
	Image template.URL
	// Config is the chart config as JSON, empty unless a chart was drawn.
	Config string
}

type pageView struct {
	Surfaces []surfaceView
}

func newSurfaceView(s *render.Surface, state dashboard.State) surfaceView {
	v := surfaceView{
		Name:    s.Name(),
		Width:   s.Width(),
		Height:  s.Height(),
		Drawn:   s.Drawn(),
		State:   state.String(),
		Message: s.Message(),
	}
	if s.Drawn() {
		v.Image = template.URL("data:" + s.Format().ContentType() + ";base64," + base64.StdEncoding.EncodeToString(s.Content()))
	}
	if cfg := s.Config(); cfg != nil {
		if b, err := json.Marshal(cfg); err == nil {
			v.Config = string(b)
		}
	}
	return v
}

// handleIndex performs one page load and renders the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := render.NewPage(s.width, s.height, s.format, s.surfaces...)
	results := s.dash.Init(ctx, page)

	states := make(map[string]dashboard.State, len(results))
	for _, res := range results {
		states[res.Surface] = res.State
	}

	var data pageView
	for _, surface := range page.Surfaces() {
		data.Surfaces = append(data.Surfaces, newSurfaceView(surface, states[surface.Name()]))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Dashboard template execution failed", err,
			log.ComponentTemplate, log.OpRender, log.LogFields{"template": "dashboard.html"})
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// handleChart performs a page load limited to one surface and writes the
// drawn image. The format query parameter overrides the server format.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimSpace(chi.URLParam(r, "surface"))
	if !slices.Contains(s.surfaces, name) {
		http.NotFound(w, r)
		return
	}

	format := s.format
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := render.ParseFormat(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	page := render.NewPage(s.width, s.height, format, name)
	res, ok := s.dash.InitSurface(ctx, page, name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	surface, _ := page.Surface(name)
	if !surface.Drawn() {
		log.FromContext(ctx).ErrorContext(ctx, "Surface left blank",
			log.FieldSurface, name, log.FieldState, res.State.String(), log.FieldError, res.Err)
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(HeaderChartState, res.State.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(surface.Content())
}
