package pdfs

import (
	"fmt"
	"math"
)

// FontSpec names a core font. Style is "", "B", "I" or "BI".
type FontSpec struct {
	Family string  `json:"family"`
	Style  string  `json:"style"`
	Size   float64 `json:"size"`
}

// Geometry is fixed for one render call.
// Top and Bottom are measured from the top and bottom page edges.
type Geometry struct {
	Paper        PaperSize `json:"-"`
	MarginX      float64   `json:"margin_x"`
	Top          float64   `json:"top"`
	Bottom       float64   `json:"bottom"`
	Leading      float64   `json:"leading"`
	LogoTop      float64   `json:"logo_top"`      // logo top edge, from the page top
	LogoGap      float64   `json:"logo_gap"`      // space between logo and title baseline
	TitleAdvance float64   `json:"title_advance"` // title baseline to first body baseline
	TitleFont    FontSpec  `json:"title_font"`
	BodyFont     FontSpec  `json:"body_font"`
	FooterFont   FontSpec  `json:"footer_font"`
}

func DefaultGeometry() Geometry {
	return Geometry{
		Paper:        A4Size,
		MarginX:      40,
		Top:          50,
		Bottom:       50,
		Leading:      15,
		LogoTop:      20,
		LogoGap:      20,
		TitleAdvance: 30,
		TitleFont:    FontSpec{Family: "Helvetica", Style: "B", Size: 14},
		BodyFont:     FontSpec{Family: "Helvetica", Size: 12},
		FooterFont:   FontSpec{Family: "Helvetica", Size: 8},
	}
}

// UsableWidth is the paper width minus both horizontal margins.
func (g Geometry) UsableWidth() float64 {
	return g.Paper.Width - 2*g.MarginX
}

// UsableHeight is the vertical space between the top and bottom margins.
func (g Geometry) UsableHeight() float64 {
	return g.Paper.Height - g.Top - g.Bottom
}

// BodyTop returns the first body baseline on page 1 given the header blocks drawn there.
func (g Geometry) BodyTop(logoHeight float64, hasTitle bool) float64 {
	y := g.Top
	if logoHeight > 0 {
		y += logoHeight + g.LogoGap
	}
	if hasTitle {
		y += g.TitleAdvance
	}
	return y
}

// Capacities returns lines per page for page 1 and for continuation pages.
func (g Geometry) Capacities(logoHeight float64, hasTitle bool) (first int, next int) {
	floor := g.Paper.Height - g.Bottom
	first = int(math.Floor((floor - g.BodyTop(logoHeight, hasTitle)) / g.Leading))
	next = int(math.Floor((floor - g.Top) / g.Leading))
	return first, next
}

func (g Geometry) Validate() error {
	switch {
	case g.Paper.Width <= 0 || g.Paper.Height <= 0:
		return &RenderError{Op: "geometry", Err: fmt.Errorf("paper size %gx%g", g.Paper.Width, g.Paper.Height)}
	case g.Leading <= 0:
		return &RenderError{Op: "geometry", Err: fmt.Errorf("leading %g", g.Leading)}
	case g.UsableWidth() <= 0:
		return &RenderError{Op: "geometry", Err: fmt.Errorf("usable width %g", g.UsableWidth())}
	case g.UsableHeight() <= 0:
		return &RenderError{Op: "geometry", Err: fmt.Errorf("usable height %g", g.UsableHeight())}
	}
	for _, f := range []FontSpec{g.TitleFont, g.BodyFont, g.FooterFont} {
		if f.Family == "" || f.Size <= 0 {
			return &RenderError{Op: "geometry", Err: fmt.Errorf("font %q size %g", f.Family, f.Size)}
		}
	}
	return nil
}
