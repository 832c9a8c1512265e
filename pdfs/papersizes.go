package pdfs

type PaperSize struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

var (
	LetterSize = PaperSize{Name: "Letter", Width: 612, Height: 792}         // 8.5" x 11"
	A4Size     = PaperSize{Name: "A4", Width: 595.27559, Height: 841.88976} // 210mm x 297mm
	LegalSize  = PaperSize{Name: "Legal", Width: 612, Height: 1008}         // 8.5" x 14"
)

// PaperSizeByName resolves a configured paper name. Unknown names report false.
func PaperSizeByName(name string) (PaperSize, bool) {
	switch name {
	case "A4", "a4", "":
		return A4Size, true
	case "Letter", "letter":
		return LetterSize, true
	case "Legal", "legal":
		return LegalSize, true
	}
	return PaperSize{}, false
}
