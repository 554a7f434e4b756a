package chartconfig

import (
	"cruscotto/internal/core"
)

// CategoryPalette is cycled over doughnut segments by index.
var CategoryPalette = []string{
	"#FF6384",
	"#36A2EB",
	"#FFCE56",
	"#4BC0C0",
	"#9966FF",
	"#FF9F40",
	"#FF6384",
	"#C9CBCF",
	"#4BC0C0",
	"#FF6384",
}

const (
	SegmentBorderColor = "#333"
	SegmentBorderWidth = 2

	PositiveColor  = "#36A2EB"
	NegativeColor  = "#FF6384"
	BarBorderWidth = 1

	BalanceDatasetLabel = "Balance"
)

// SegmentColor returns the palette color for segment i.
func SegmentColor(i int) string {
	return CategoryPalette[i%len(CategoryPalette)]
}

// BalanceColor returns the bar color for v. Zero counts as positive.
func BalanceColor(v float64) string {
	if v >= 0 {
		return PositiveColor
	}
	return NegativeColor
}

// CategoryTooltip formats a doughnut tooltip: "Food: $120.50".
func CategoryTooltip(label string, v float64) string {
	return label + ": " + core.FormatDollars(v)
}

// BalanceTooltip formats a bar tooltip: "Balance: $-3.50".
func BalanceTooltip(v float64) string {
	return BalanceDatasetLabel + ": " + core.FormatDollars(v)
}

// BuildCategory returns the doughnut config for s. ok is false for an empty
// series, in which case no config is built.
func BuildCategory(s core.LabeledSeries) (cfg Config, ok bool) {
	if s.Empty() {
		return Config{}, false
	}

	entries := s.Entries()
	ds := Dataset{
		Data:            make([]float64, len(entries)),
		BackgroundColor: make([]string, len(entries)),
		BorderColor:     make([]string, len(entries)),
		BorderWidth:     SegmentBorderWidth,
	}
	tooltips := make([]string, len(entries))
	for i, e := range entries {
		ds.Data[i] = e.Value
		ds.BackgroundColor[i] = SegmentColor(i)
		ds.BorderColor[i] = SegmentBorderColor
		tooltips[i] = CategoryTooltip(e.Label, e.Value)
	}

	return Config{
		Kind: KindDoughnut,
		Data: Data{Labels: s.Labels(), Datasets: []Dataset{ds}},
		Options: Options{
			Responsive: true,
			Legend: Legend{
				Display:       true,
				Position:      LegendRight,
				BoxWidth:      12,
				Padding:       8,
				UsePointStyle: true,
			},
			Tooltips: tooltips,
		},
	}, true
}

// BuildAccount returns the bar config for s. ok is false for an empty series.
func BuildAccount(s core.LabeledSeries) (cfg Config, ok bool) {
	if s.Empty() {
		return Config{}, false
	}

	entries := s.Entries()
	ds := Dataset{
		Label:           BalanceDatasetLabel,
		Data:            make([]float64, len(entries)),
		BackgroundColor: make([]string, len(entries)),
		BorderColor:     make([]string, len(entries)),
		BorderWidth:     BarBorderWidth,
	}
	tooltips := make([]string, len(entries))
	for i, e := range entries {
		c := BalanceColor(e.Value)
		ds.Data[i] = e.Value
		ds.BackgroundColor[i] = c
		ds.BorderColor[i] = c
		tooltips[i] = BalanceTooltip(e.Value)
	}

	return Config{
		Kind: KindBar,
		Data: Data{Labels: s.Labels(), Datasets: []Dataset{ds}},
		Options: Options{
			Responsive: true,
			Legend:     Legend{Display: false},
			Scales: &Scales{
				Y: Axis{BeginAtZero: true, TickPrefix: "$"},
			},
			Tooltips: tooltips,
		},
	}, true
}
