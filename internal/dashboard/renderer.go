// Package dashboard runs the chart pipelines of a page load: acquire the
// surface, fetch the series, then draw either a chart or a message.
package dashboard

import (
	"context"

	"cruscotto/internal/chartconfig"
	"cruscotto/internal/core"
	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

// ErrorMessage is drawn on a surface whenever its pipeline fails.
const ErrorMessage = "Error loading data"

// State is the pipeline state. A pipeline never leaves a terminal state.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateEmpty
	StateRendered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateEmpty:
		return "empty"
	case StateRendered:
		return "rendered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether s ends a pipeline.
func (s State) Terminal() bool {
	return s == StateEmpty || s == StateRendered || s == StateFailed
}

// Fetcher loads the series behind an endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (core.LabeledSeries, error)
}

// Engine draws onto a surface.
type Engine interface {
	Render(s *render.Surface, cfg chartconfig.Config) error
	FillText(s *render.Surface, msg string) error
}

// ChartSpec describes one chart of the page.
type ChartSpec struct {
	Surface      string
	Endpoint     string
	EmptyMessage string
	// LogPrefix starts the diagnostic message written on failure.
	LogPrefix string
	Build     func(core.LabeledSeries) (chartconfig.Config, bool)
}

var (
	CategoryChart = ChartSpec{
		Surface:      render.CategoryChart,
		Endpoint:     "/api/category_data",
		EmptyMessage: "No spending data available",
		LogPrefix:    "Error loading category data:",
		Build:        chartconfig.BuildCategory,
	}
	AccountChart = ChartSpec{
		Surface:      render.AccountChart,
		Endpoint:     "/api/account_data",
		EmptyMessage: "No account data available",
		LogPrefix:    "Error loading account data:",
		Build:        chartconfig.BuildAccount,
	}
)

// Result is the outcome of one pipeline run.
type Result struct {
	Surface string
	State   State
	// SurfaceMissing is set when the page had no surface for the chart.
	SurfaceMissing bool
	// Err is the cause of a failure, or of a message that could not be drawn.
	Err error
}

// Renderer runs the pipeline of a single chart.
type Renderer struct {
	spec    ChartSpec
	fetcher Fetcher
	engine  Engine
	logger  *log.Logger
	events  *log.StructuredLogger
}

// NewRenderer returns a renderer for spec.
func NewRenderer(spec ChartSpec, f Fetcher, e Engine, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDashboard)
	return &Renderer{
		spec:    spec,
		fetcher: f,
		engine:  e,
		logger:  logger,
		events:  log.NewStructuredLogger(logger),
	}
}

// NewCategoryChartRenderer renders spending per category as a doughnut.
func NewCategoryChartRenderer(f Fetcher, e Engine, logger *log.Logger) *Renderer {
	return NewRenderer(CategoryChart, f, e, logger)
}

// NewAccountChartRenderer renders balance per account as bars.
func NewAccountChartRenderer(f Fetcher, e Engine, logger *log.Logger) *Renderer {
	return NewRenderer(AccountChart, f, e, logger)
}

// Init runs the pipeline once against page. It never returns an error:
// every failure ends as a message drawn on the surface.
func (r *Renderer) Init(ctx context.Context, page *render.Page) Result {
	res := Result{Surface: r.spec.Surface, State: StateIdle}

	surface, ok := page.Surface(r.spec.Surface)
	if !ok {
		res.SurfaceMissing = true
		return res
	}

	res.State = StateFetching
	series, err := r.fetcher.Fetch(ctx, r.spec.Endpoint)
	if err != nil {
		return r.fail(ctx, surface, res, log.OpFetch, err)
	}

	cfg, ok := r.spec.Build(series)
	if !ok {
		res.State = StateEmpty
		if err := r.engine.FillText(surface, r.spec.EmptyMessage); err != nil {
			res.Err = err
			r.logger.ErrorContext(ctx, "Failed to draw empty-state message",
				log.FieldSurface, r.spec.Surface, log.FieldOperation, log.OpFillText, log.FieldError, err)
		}
		return res
	}

	if err := r.engine.Render(surface, cfg); err != nil {
		return r.fail(ctx, surface, res, log.OpRender, err)
	}

	res.State = StateRendered
	r.events.LogChartRendered(ctx, r.spec.Surface, r.spec.Endpoint, string(cfg.Kind), series.Len())
	return res
}

func (r *Renderer) fail(ctx context.Context, surface *render.Surface, res Result, op string, cause error) Result {
	res.State = StateFailed
	res.Err = cause

	component := log.ComponentRender
	if op == log.OpFetch {
		component = log.ComponentFetch
	}
	r.logger.WithComponent(component).ErrorContext(ctx, r.spec.LogPrefix,
		log.FieldError, cause,
		log.FieldSurface, r.spec.Surface,
		log.FieldEndpoint, r.spec.Endpoint,
		log.FieldOperation, op)

	if err := r.engine.FillText(surface, ErrorMessage); err != nil {
		r.logger.ErrorContext(ctx, "Failed to draw error message",
			log.FieldSurface, r.spec.Surface, log.FieldOperation, log.OpFillText, log.FieldError, err)
	}
	return res
}
