package pdfs

import (
	"bytes"
	"fmt"
)

const DefaultFooterFormat = "Page %d of %d"

const logoImageName = "logo"

// Renderer turns interpolated contract text into a paginated PDF.
// A Renderer holds configuration only, so one value may serve concurrent calls.
type Renderer struct {
	Geometry     Geometry
	FooterFormat string        // fmt format taking page number and total pages
	NewWriter    WriterFactory // nil means NewFpdfWriter
}

func NewRenderer(g Geometry) *Renderer {
	return &Renderer{Geometry: g, FooterFormat: DefaultFooterFormat}
}

type Result struct {
	Bytes []byte
	Pages int
}

// renderState belongs to exactly one Render call.
type renderState struct {
	page int
	y    float64
}

// Render runs the measurement pass and then the draw pass.
// Any failure returns a *RenderError and no bytes.
func (r *Renderer) Render(content string, title string, logo *LogoSpec) (*Result, error) {
	g := r.Geometry
	if err := g.Validate(); err != nil {
		return nil, err
	}
	var placed *placedLogo
	if logo != nil {
		var err error
		if placed, err = loadLogo(logo, g.Paper); err != nil {
			return nil, err
		}
	}
	newWriter := r.NewWriter
	if newWriter == nil {
		newWriter = NewFpdfWriter
	}
	w := newWriter(g.Paper)

	// measurement pass
	logoHeight := 0.0
	if placed != nil {
		logoHeight = placed.height
	}
	w.SetFont(g.BodyFont)
	layout, err := Measure(SplitParagraphs(content), g, logoHeight, title, w.TextWidth)
	if err != nil {
		return nil, err
	}

	// draw pass
	r.draw(w, layout, title, placed)
	if err = w.Err(); err != nil {
		return nil, &RenderError{Op: "draw", Err: err}
	}
	if w.PageCount() != layout.TotalPages() {
		return nil, &RenderError{Op: "draw", Err: fmt.Errorf("drew %d pages, measured %d", w.PageCount(), layout.TotalPages())}
	}
	var buf bytes.Buffer
	if _, err = w.WriteTo(&buf); err != nil {
		return nil, &RenderError{Op: "output", Err: err}
	}
	return &Result{Bytes: buf.Bytes(), Pages: layout.TotalPages()}, nil
}

func (r *Renderer) draw(w Writer, layout *Layout, title string, logo *placedLogo) {
	g := r.Geometry
	total := layout.TotalPages()
	st := &renderState{}
	for st.page < total {
		st.page++
		st.y = g.Top
		w.AddPage()
		if st.page == 1 {
			if logo != nil {
				x := (g.Paper.Width - logo.width) / 2
				w.Image(logoImageName, logo.png, x, g.LogoTop, logo.width, logo.height)
				st.y += logo.height + g.LogoGap
			}
			if title != "" {
				w.SetFont(g.TitleFont)
				w.Text(g.MarginX, st.y, title)
				st.y += g.TitleAdvance
			}
		}
		w.SetFont(g.BodyFont)
		for _, line := range layout.PageLines(st.page) {
			if line != "" {
				w.Text(g.MarginX, st.y, line)
			}
			st.y += g.Leading
		}
		r.drawFooter(w, st.page, total)
	}
}

func (r *Renderer) drawFooter(w Writer, page, total int) {
	g := r.Geometry
	format := r.FooterFormat
	if format == "" {
		format = DefaultFooterFormat
	}
	footer := fmt.Sprintf(format, page, total)
	w.SetFont(g.FooterFont)
	w.Text(g.Paper.Width-g.MarginX-w.TextWidth(footer), g.Paper.Height-g.Bottom, footer)
}
