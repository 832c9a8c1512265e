package pdfs

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultLogoWidthRatio sizes a logo without an explicit width, relative to the page width.
const DefaultLogoWidthRatio = 0.33

// LogoSpec is the optional page 1 header image.
// Data wins over Path. Path is read once per render call.
// Height 0 keeps the natural aspect ratio. Both set stretch the image exactly.
type LogoSpec struct {
	Data   []byte
	Path   string
	Width  float64
	Height float64
}

type placedLogo struct {
	png    []byte
	width  float64
	height float64
}

func loadLogo(spec *LogoSpec, paper PaperSize) (*placedLogo, error) {
	data := spec.Data
	if len(data) == 0 && spec.Path != "" {
		b, err := os.ReadFile(spec.Path)
		if err != nil {
			return nil, &RenderError{Op: "logo", Err: err}
		}
		data = b
	}
	if len(data) == 0 {
		return nil, &RenderError{Op: "logo", Err: ErrEmptyLogo}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &RenderError{Op: "logo", Err: err}
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &RenderError{Op: "logo", Err: fmt.Errorf("empty %s image", format)}
	}
	width := spec.Width
	if width <= 0 {
		width = paper.Width * DefaultLogoWidthRatio
	}
	height := spec.Height
	if height <= 0 {
		height = width * float64(bounds.Dy()) / float64(bounds.Dx())
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Op: "logo", Err: err}
	}
	return &placedLogo{png: buf.Bytes(), width: width, height: height}, nil
}

// DecodeLogoConfig reports the format and pixel size of logo data without keeping it.
func DecodeLogoConfig(data []byte) (string, int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, &RenderError{Op: "logo", Err: err}
	}
	return format, cfg.Width, cfg.Height, nil
}
