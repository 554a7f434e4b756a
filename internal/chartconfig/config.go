// Package chartconfig maps a core.LabeledSeries to the declarative chart
// description handed to the render engine.
package chartconfig

import (
	"cruscotto/internal/core"
)

// Kind selects the chart type.
type Kind string

const (
	KindDoughnut Kind = "doughnut"
	KindBar      Kind = "bar"
)

// LegendPosition places the legend relative to the plot area.
type LegendPosition string

const LegendRight LegendPosition = "right"

// Config is the declarative chart description. Its JSON form follows the
// shape Chart.js consumes, so the same value can be embedded in the page.
type Config struct {
	Kind    Kind    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset holds one value per label plus per-point styling.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

type Options struct {
	Responsive          bool     `json:"responsive"`
	MaintainAspectRatio bool     `json:"maintainAspectRatio"`
	Legend              Legend   `json:"legend"`
	Scales              *Scales  `json:"scales,omitempty"`
	Tooltips            []string `json:"tooltips"`
}

type Legend struct {
	Display  bool           `json:"display"`
	Position LegendPosition `json:"position,omitempty"`
	BoxWidth int            `json:"boxWidth,omitempty"`
	Padding  int            `json:"padding,omitempty"`
	// UsePointStyle draws round markers instead of boxes.
	UsePointStyle bool `json:"usePointStyle,omitempty"`
}

type Scales struct {
	Y Axis `json:"y"`
}

// Axis describes the value axis. TickPrefix is prepended to the
// two-decimal tick value.
type Axis struct {
	BeginAtZero bool   `json:"beginAtZero"`
	TickPrefix  string `json:"tickPrefix"`
}

// Labels returns the chart labels.
func (c Config) Labels() []string { return c.Data.Labels }

// Values returns the values of the first dataset.
func (c Config) Values() []float64 {
	if len(c.Data.Datasets) == 0 {
		return nil
	}
	return c.Data.Datasets[0].Data
}

// Tooltip returns the tooltip text of point i, or "" when out of range.
func (c Config) Tooltip(i int) string {
	if i < 0 || i >= len(c.Options.Tooltips) {
		return ""
	}
	return c.Options.Tooltips[i]
}

// FormatTick renders an axis tick value. Only meaningful for charts with
// scales.
func (c Config) FormatTick(v float64) string {
	if c.Options.Scales == nil {
		return core.FormatAmount(v)
	}
	return c.Options.Scales.Y.TickPrefix + core.FormatAmount(v)
}
