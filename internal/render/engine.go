package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"cruscotto/internal/chartconfig"
)

// ErrUnknownKind is returned for a config kind the engine cannot draw.
var ErrUnknownKind = errors.New("unknown chart kind")

const (
	// message baseline origin
	messageX = 10
	messageY = 50

	messageFontSize = 12.0
	legendFontSize  = 10.0
	legendWidth     = 180
	axisAllowance   = 80
)

var textColor = drawing.ColorFromHex("333333")

// Engine draws chart configs and text messages onto surfaces. It keeps no
// state between calls and is safe for concurrent use on distinct surfaces.
type Engine struct{}

// NewEngine returns a go-chart backed engine.
func NewEngine() *Engine { return &Engine{} }

func provider(f Format) chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return func(width, height int) (chart.Renderer, error) {
		r, err := chart.SVG(width, height)
		if err != nil {
			return nil, err
		}
		return svgText{r}, nil
	}
}

// svgText escapes text bodies, which go-chart writes into <text> elements
// verbatim. Measurement still sees the raw text.
type svgText struct {
	chart.Renderer
}

func (r svgText) Text(body string, x, y int) {
	r.Renderer.Text(html.EscapeString(body), x, y)
}

// FillText draws msg on the surface instead of a chart.
func (e *Engine) FillText(s *Surface, msg string) error {
	r, err := provider(s.Format())(s.Width(), s.Height())
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)
	r.SetFontColor(textColor)
	r.SetFontSize(messageFontSize)
	r.Text(msg, messageX, messageY)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return fmt.Errorf("save text: %w", err)
	}
	return s.commitText(buf.Bytes(), msg)
}

// Render draws cfg on the surface. A panic inside go-chart is returned as an
// error and leaves the surface untouched.
func (e *Engine) Render(s *Surface, cfg chartconfig.Config) (err error) {
	if len(cfg.Data.Datasets) == 0 || len(cfg.Labels()) == 0 {
		return errors.New("config has no data")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render %s chart: panic: %v", cfg.Kind, p)
		}
	}()

	var buf bytes.Buffer
	switch cfg.Kind {
	case chartconfig.KindDoughnut:
		if arcTotal(cfg.Data.Datasets[0].Data) == 0 {
			err = e.legendOnly(cfg, s, &buf)
		} else {
			err = e.doughnut(cfg, s).Render(provider(s.Format()), &buf)
		}
	case chartconfig.KindBar:
		err = e.bar(cfg, s).Render(provider(s.Format()), &buf)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", cfg.Kind, err)
	}
	return s.commitChart(buf.Bytes(), cfg)
}

// arcTotal is the sum slice arcs are proportional to. Arcs use absolute
// values, so a negative amount still gets its share of the ring.
func arcTotal(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += math.Abs(v)
	}
	return total
}

// legendOnly draws an empty ring area with the legend, for a doughnut whose
// values are all zero.
func (e *Engine) legendOnly(cfg chartconfig.Config, s *Surface, w io.Writer) error {
	r, err := provider(s.Format())(s.Width(), s.Height())
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	box := chart.NewBox(0, 0, s.Width(), s.Height())
	if cfg.Options.Legend.Display {
		rightLegend(cfg, s.Width())(r, box, chart.Style{Font: font})
	}
	return r.Save(w)
}

func (e *Engine) doughnut(cfg chartconfig.Config, s *Surface) chart.DonutChart {
	ds := cfg.Data.Datasets[0]
	values := make([]chart.Value, len(cfg.Labels()))
	for i, label := range cfg.Labels() {
		values[i] = chart.Value{
			Label: label,
			Value: math.Abs(valueAt(ds.Data, i)),
			Style: chart.Style{
				FillColor:   hexColor(colorAt(ds.BackgroundColor, i)),
				StrokeColor: hexColor(colorAt(ds.BorderColor, i)),
				StrokeWidth: float64(ds.BorderWidth),
			},
		}
	}

	padding := chart.Box{Top: 10, Left: 10, Bottom: 10, Right: 10}
	var elements []chart.Renderable
	if cfg.Options.Legend.Display && cfg.Options.Legend.Position == chartconfig.LegendRight {
		padding.Right = legendWidth
		elements = append(elements, rightLegend(cfg, s.Width()))
	}

	return chart.DonutChart{
		Width:      s.Width(),
		Height:     s.Height(),
		Background: chart.Style{Padding: padding},
		Values:     values,
		Elements:   elements,
	}
}

func (e *Engine) bar(cfg chartconfig.Config, s *Surface) chart.BarChart {
	ds := cfg.Data.Datasets[0]
	bars := make([]chart.Value, len(cfg.Labels()))
	for i, label := range cfg.Labels() {
		bars[i] = chart.Value{
			Label: label,
			Value: valueAt(ds.Data, i),
			Style: chart.Style{
				FillColor:   hexColor(colorAt(ds.BackgroundColor, i)),
				StrokeColor: hexColor(colorAt(ds.BorderColor, i)),
				StrokeWidth: float64(ds.BorderWidth),
			},
		}
	}

	beginAtZero := cfg.Options.Scales != nil && cfg.Options.Scales.Y.BeginAtZero
	lo, hi := valueRange(ds.Data, beginAtZero)

	slot := (s.Width() - axisAllowance) / len(bars)
	if slot < 2 {
		slot = 2
	}
	barWidth := slot * 6 / 10
	if barWidth < 1 {
		barWidth = 1
	}

	return chart.BarChart{
		Width:  s.Width(),
		Height: s.Height(),
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 10, Right: 10, Bottom: 10},
		},
		BarWidth:     barWidth,
		BarSpacing:   slot - barWidth,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return cfg.FormatTick(f)
				}
				return fmt.Sprintf("%v", v)
			},
		},
		Bars: bars,
	}
}

// rightLegend draws one point-style marker and tooltip text per label in
// the band reserved on the right of the plot.
func rightLegend(cfg chartconfig.Config, width int) chart.Renderable {
	legend := cfg.Options.Legend
	box := legend.BoxWidth
	if box <= 0 {
		box = 12
	}
	pad := legend.Padding
	ds := cfg.Data.Datasets[0]

	return func(r chart.Renderer, _ chart.Box, defaults chart.Style) {
		if defaults.Font != nil {
			r.SetFont(defaults.Font)
		}
		r.SetFontSize(legendFontSize)
		r.SetFontColor(textColor)

		x := width - legendWidth + pad
		y := pad + box
		for i := range cfg.Labels() {
			c := hexColor(colorAt(ds.BackgroundColor, i))
			r.SetFillColor(c)
			r.SetStrokeColor(c)
			r.SetStrokeWidth(1)
			if legend.UsePointStyle {
				r.Circle(float64(box)/2, x+box/2, y-box/2)
			} else {
				r.MoveTo(x, y-box)
				r.LineTo(x+box, y-box)
				r.LineTo(x+box, y)
				r.LineTo(x, y)
				r.Close()
			}
			r.FillStroke()

			r.Text(cfg.Tooltip(i), x+box+pad, y)
			y += box + pad
		}
	}
}

func valueRange(values []float64, beginAtZero bool) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if beginAtZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return chartconfig.PositiveColor
	}
	return colors[i%len(colors)]
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
