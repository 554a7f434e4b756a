package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruscotto/internal/chartconfig"
	"cruscotto/internal/core"
	"cruscotto/internal/fetch"
	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	series map[string]core.LabeledSeries
	errs   map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:  map[string]int{},
		series: map[string]core.LabeledSeries{},
		errs:   map[string]error{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, endpoint string) (core.LabeledSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	if err := f.errs[endpoint]; err != nil {
		return core.LabeledSeries{}, &fetch.FetchError{Endpoint: endpoint, Err: err}
	}
	return f.series[endpoint], nil
}

func (f *fakeFetcher) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

type failingEngine struct{ *render.Engine }

func (failingEngine) Render(*render.Surface, chartconfig.Config) error {
	return errors.New("engine exploded")
}

func bufferLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})})
}

func fullPage() *render.Page {
	return render.NewPage(640, 400, render.FormatSVG, render.CategoryChart, render.AccountChart)
}

func series(t *testing.T, payload string) core.LabeledSeries {
	t.Helper()
	s, err := core.ParseLabeledSeries([]byte(payload))
	require.NoError(t, err)
	return s
}

func TestCategoryRendererRendersDoughnut(t *testing.T) {
	f := newFakeFetcher()
	f.series[CategoryChart.Endpoint] = series(t, `{"Food": 120.5, "Rent": 900}`)

	page := fullPage()
	res := NewCategoryChartRenderer(f, render.NewEngine(), nil).Init(context.Background(), page)

	assert.Equal(t, StateRendered, res.State)
	assert.NoError(t, res.Err)

	s, _ := page.Surface(render.CategoryChart)
	cfg := s.Config()
	require.NotNil(t, cfg)
	assert.Equal(t, chartconfig.KindDoughnut, cfg.Kind)
	assert.Equal(t, []string{"Food", "Rent"}, cfg.Labels())
	assert.Equal(t, []float64{120.5, 900}, cfg.Values())
	assert.Equal(t, "Food: $120.50", cfg.Tooltip(0))

	other, _ := page.Surface(render.AccountChart)
	assert.False(t, other.Drawn())
}

func TestEmptySeriesDrawsDatasetMessage(t *testing.T) {
	tests := []struct {
		spec ChartSpec
		want string
	}{
		{CategoryChart, "No spending data available"},
		{AccountChart, "No account data available"},
	}
	for _, tt := range tests {
		t.Run(tt.spec.Surface, func(t *testing.T) {
			var buf bytes.Buffer
			f := newFakeFetcher()
			page := fullPage()

			res := NewRenderer(tt.spec, f, render.NewEngine(), bufferLogger(&buf)).Init(context.Background(), page)

			assert.Equal(t, StateEmpty, res.State)
			s, _ := page.Surface(tt.spec.Surface)
			assert.Equal(t, tt.want, s.Message())
			assert.Nil(t, s.Config())
			assert.Empty(t, buf.String(), "empty dataset is not an error")
		})
	}
}

func TestFetchFailureDrawsErrorAndLogsCause(t *testing.T) {
	tests := []struct {
		spec   ChartSpec
		prefix string
	}{
		{CategoryChart, "Error loading category data:"},
		{AccountChart, "Error loading account data:"},
	}
	for _, tt := range tests {
		t.Run(tt.spec.Surface, func(t *testing.T) {
			var buf bytes.Buffer
			f := newFakeFetcher()
			f.errs[tt.spec.Endpoint] = errors.New("connection refused")
			page := fullPage()

			res := NewRenderer(tt.spec, f, render.NewEngine(), bufferLogger(&buf)).Init(context.Background(), page)

			assert.Equal(t, StateFailed, res.State)
			var fe *fetch.FetchError
			assert.True(t, errors.As(res.Err, &fe))

			s, _ := page.Surface(tt.spec.Surface)
			assert.Equal(t, ErrorMessage, s.Message())

			out := buf.String()
			assert.Contains(t, out, tt.prefix)
			assert.Contains(t, out, "connection refused")
			assert.Contains(t, out, "level=ERROR")
		})
	}
}

func TestEngineFailureIsHandledLikeFetchFailure(t *testing.T) {
	var buf bytes.Buffer
	f := newFakeFetcher()
	f.series[AccountChart.Endpoint] = series(t, `{"Wallet": 200}`)
	page := fullPage()

	res := NewAccountChartRenderer(f, failingEngine{render.NewEngine()}, bufferLogger(&buf)).Init(context.Background(), page)

	assert.Equal(t, StateFailed, res.State)
	s, _ := page.Surface(render.AccountChart)
	assert.Equal(t, ErrorMessage, s.Message())
	assert.Contains(t, buf.String(), "Error loading account data:")
	assert.Contains(t, buf.String(), "engine exploded")
}

func TestMissingSurfaceSkipsFetchAndLogging(t *testing.T) {
	var buf bytes.Buffer
	f := newFakeFetcher()
	f.errs[CategoryChart.Endpoint] = errors.New("should not be fetched")
	page := render.NewPage(640, 400, render.FormatSVG, render.AccountChart)

	res := NewCategoryChartRenderer(f, render.NewEngine(), bufferLogger(&buf)).Init(context.Background(), page)

	assert.True(t, res.SurfaceMissing)
	assert.Equal(t, StateIdle, res.State)
	assert.NoError(t, res.Err)
	assert.Zero(t, f.callCount(CategoryChart.Endpoint))
	assert.Empty(t, buf.String())
}

func TestDashboardInitRunsPipelinesIndependently(t *testing.T) {
	var buf bytes.Buffer
	f := newFakeFetcher()
	f.errs[CategoryChart.Endpoint] = errors.New("timeout")
	f.series[AccountChart.Endpoint] = series(t, `{"Main Savings": 1000, "Credit Card": -42}`)
	page := fullPage()

	results := New(f, render.NewEngine(), bufferLogger(&buf)).Init(context.Background(), page)

	require.Len(t, results, 2)
	assert.Equal(t, render.CategoryChart, results[0].Surface)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, render.AccountChart, results[1].Surface)
	assert.Equal(t, StateRendered, results[1].State)

	acc, _ := page.Surface(render.AccountChart)
	ds := acc.Config().Data.Datasets[0]
	assert.Equal(t, []string{chartconfig.PositiveColor, chartconfig.NegativeColor}, ds.BackgroundColor)

	assert.Equal(t, 1, f.callCount(CategoryChart.Endpoint))
	assert.Equal(t, 1, f.callCount(AccountChart.Endpoint))
}

func TestDashboardInitSurface(t *testing.T) {
	f := newFakeFetcher()
	f.series[AccountChart.Endpoint] = series(t, `{"Wallet": 5}`)
	d := New(f, render.NewEngine(), nil)
	page := fullPage()

	res, ok := d.InitSurface(context.Background(), page, render.AccountChart)
	require.True(t, ok)
	assert.Equal(t, StateRendered, res.State)
	assert.Zero(t, f.callCount(CategoryChart.Endpoint))

	_, ok = d.InitSurface(context.Background(), page, "pieChart")
	assert.False(t, ok)

	assert.Equal(t, []string{render.CategoryChart, render.AccountChart}, d.Surfaces())
}

func TestEndToEndOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/category_data":
			fmt.Fprint(w, `{"Food": 120.5, "Rent": 900}`)
		case "/api/account_data":
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := fetch.New(srv.URL, srv.Client())
	require.NoError(t, err)
	page := fullPage()

	results := New(f, render.NewEngine(), nil).Init(context.Background(), page)
	assert.Equal(t, StateRendered, results[0].State)
	assert.Equal(t, StateEmpty, results[1].State)

	cat, _ := page.Surface(render.CategoryChart)
	assert.Equal(t, []string{"Food", "Rent"}, cat.Config().Labels())
	assert.True(t, strings.Contains(string(cat.Content()), "<svg"))

	acc, _ := page.Surface(render.AccountChart)
	assert.Equal(t, "No account data available", acc.Message())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "rendered", StateRendered.String())
	assert.False(t, StateFetching.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateEmpty.Terminal())
	assert.Equal(t, "unknown", State(42).String())
}
