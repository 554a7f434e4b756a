// Package render owns the page model (named drawing surfaces) and the
// engine that draws chart configs and text onto them with go-chart.
package render

import (
	"errors"
	"fmt"
	"strings"

	"cruscotto/internal/chartconfig"
)

// Surface names used by the dashboard page.
const (
	CategoryChart = "categoryChart"
	AccountChart  = "accountChart"
)

// Format is the encoding a surface is drawn in.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png", case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unknown render format %q: must be svg or png", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Ext returns the file extension of the format, without the dot.
func (f Format) Ext() string { return string(f) }

// ErrAlreadyDrawn is returned when something is drawn twice on a surface
// during one page load.
var ErrAlreadyDrawn = errors.New("surface already drawn")

// Surface is a named drawing target. It is written once per page load,
// either with a chart or with a text message.
type Surface struct {
	name   string
	width  int
	height int
	format Format

	drawn   bool
	content []byte
	message string
	config  *chartconfig.Config
}

// NewSurface returns an undrawn surface.
func NewSurface(name string, width, height int, format Format) *Surface {
	return &Surface{name: name, width: width, height: height, format: format}
}

func (s *Surface) Name() string   { return s.name }
func (s *Surface) Width() int     { return s.width }
func (s *Surface) Height() int    { return s.height }
func (s *Surface) Format() Format { return s.format }

// Drawn reports whether anything was drawn on the surface.
func (s *Surface) Drawn() bool { return s.drawn }

// Content returns the encoded drawing, nil while undrawn.
func (s *Surface) Content() []byte { return s.content }

// Message returns the text drawn in place of a chart, if any.
func (s *Surface) Message() string { return s.message }

// Config returns the chart config drawn on the surface, or nil when the
// surface holds a message or nothing.
func (s *Surface) Config() *chartconfig.Config { return s.config }

func (s *Surface) commitChart(content []byte, cfg chartconfig.Config) error {
	if s.drawn {
		return fmt.Errorf("%s: %w", s.name, ErrAlreadyDrawn)
	}
	s.drawn = true
	s.content = content
	s.config = &cfg
	return nil
}

func (s *Surface) commitText(content []byte, msg string) error {
	if s.drawn {
		return fmt.Errorf("%s: %w", s.name, ErrAlreadyDrawn)
	}
	s.drawn = true
	s.content = content
	s.message = msg
	return nil
}

// Page is the set of surfaces present in the markup for one page load.
type Page struct {
	order    []string
	surfaces map[string]*Surface
}

// NewPage creates a page with one surface per name, all sharing size and
// format. Duplicate names are collapsed.
func NewPage(width, height int, format Format, names ...string) *Page {
	p := &Page{surfaces: make(map[string]*Surface, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := p.surfaces[n]; ok {
			continue
		}
		p.order = append(p.order, n)
		p.surfaces[n] = NewSurface(n, width, height, format)
	}
	return p
}

// Surface acquires the surface called name. ok is false when the page has
// no such surface.
func (p *Page) Surface(name string) (*Surface, bool) {
	s, ok := p.surfaces[name]
	return s, ok
}

// Surfaces returns the surfaces in declaration order.
func (p *Page) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.surfaces[n])
	}
	return out
}
