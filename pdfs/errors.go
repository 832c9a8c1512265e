package pdfs

import "errors"

// RenderError aborts a render call. No partial document is returned with it.
type RenderError struct {
	Op  string // geometry, logo, layout, output
	Err error
}

func (e *RenderError) Error() string {
	return "pdfs: " + e.Op + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyLogo  = errors.New("logo has no image data")
	ErrNoCapacity = errors.New("no room for body lines")
	ErrNoDocs     = errors.New("no documents")
)
