package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

// Dashboard is the set of chart pipelines started on page load.
type Dashboard struct {
	renderers []*Renderer
}

// New wires the category and account pipelines.
func New(f Fetcher, e Engine, logger *log.Logger) *Dashboard {
	return &Dashboard{renderers: []*Renderer{
		NewCategoryChartRenderer(f, e, logger),
		NewAccountChartRenderer(f, e, logger),
	}}
}

// Init runs every pipeline against page concurrently and waits for all of
// them. Pipelines share nothing; one failing does not affect the others.
// Results are in pipeline order.
func (d *Dashboard) Init(ctx context.Context, page *render.Page) []Result {
	results := make([]Result, len(d.renderers))

	var g errgroup.Group
	for i, r := range d.renderers {
		g.Go(func() error {
			results[i] = r.Init(ctx, page)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// InitSurface runs only the pipeline drawing surface. ok is false when no
// pipeline targets that surface.
func (d *Dashboard) InitSurface(ctx context.Context, page *render.Page, surface string) (res Result, ok bool) {
	for _, r := range d.renderers {
		if r.spec.Surface == surface {
			return r.Init(ctx, page), true
		}
	}
	return Result{}, false
}

// Surfaces lists the surface names the dashboard draws on.
func (d *Dashboard) Surfaces() []string {
	out := make([]string, len(d.renderers))
	for i, r := range d.renderers {
		out[i] = r.spec.Surface
	}
	return out
}
