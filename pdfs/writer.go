package pdfs

import "io"

// Writer is a minimal, stream-style, append-only page writer. No page navigation.
// Strings are UTF-8; implementations encode them for their fonts.
// Coordinates are in pt from the top-left corner, y on the text baseline.
type Writer interface {
	PaperSize() PaperSize

	AddPage()
	PageCount() int

	SetFont(f FontSpec)
	TextWidth(s string) float64 // in the current font
	Text(x float64, y float64, s string)

	// Image draws PNG data registered under name, stretched to w x h.
	Image(name string, png []byte, x, y, w, h float64)

	WriteTo(w io.Writer) (int64, error)
	Err() error
}

// WriterFactory builds a fresh Writer for each render call.
type WriterFactory func(paper PaperSize) Writer
