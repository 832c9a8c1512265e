package pdfs

import (
	"bytes"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/zeptools/gw-contracts/rw"
)

// DocumentStamp is written as creation and modification date so output stays reproducible.
var DocumentStamp = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type FpdfWriter struct {
	pdf   *fpdf.Fpdf
	paper PaperSize
}

// Ensure FpdfWriter implements Writer
var _ Writer = (*FpdfWriter)(nil)

func NewFpdfWriter(paper PaperSize) Writer {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: paper.Width, Ht: paper.Height},
	})
	pdf.SetCompression(true)
	pdf.SetCreationDate(DocumentStamp)
	pdf.SetModificationDate(DocumentStamp)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	return &FpdfWriter{pdf: pdf, paper: paper}
}

func (w *FpdfWriter) PaperSize() PaperSize {
	return w.paper
}

func (w *FpdfWriter) AddPage() {
	w.pdf.AddPage()
}

func (w *FpdfWriter) PageCount() int {
	return w.pdf.PageCount()
}

func (w *FpdfWriter) SetFont(f FontSpec) {
	w.pdf.SetFont(f.Family, f.Style, f.Size)
}

func (w *FpdfWriter) TextWidth(s string) float64 {
	return w.pdf.GetStringWidth(EncodeCP1252(s))
}

func (w *FpdfWriter) Text(x float64, y float64, s string) {
	w.pdf.Text(x, y, EncodeCP1252(s))
}

func (w *FpdfWriter) Image(name string, png []byte, x, y, width, height float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if w.pdf.GetImageInfo(name) == nil {
		w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	}
	w.pdf.ImageOptions(name, x, y, width, height, false, opts, 0, "")
}

func (w *FpdfWriter) WriteTo(out io.Writer) (int64, error) {
	cw := rw.NewCountWriter(out)
	err := w.pdf.Output(cw)
	return cw.BytesWritten(), err
}

func (w *FpdfWriter) Err() error {
	return w.pdf.Error()
}
