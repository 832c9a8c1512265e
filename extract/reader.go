package extract

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/zeptools/gw-contracts/pdfs"
)

const maxTextSize = 4 << 20

// FromPDF validates the upload, reads its text and matches the identity fields.
func (e *Extractor) FromPDF(data []byte) (Identity, []ExtractionMiss, error) {
	text, err := e.Text(data)
	if err != nil {
		return Identity{}, nil, err
	}
	id, misses := e.FromText(text)
	return id, misses, nil
}

// Text returns the plain text of every page in order.
func (e *Extractor) Text(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &InputError{Reason: "empty upload"}
	}
	if e.MaxUpload > 0 && int64(len(data)) > e.MaxUpload {
		return "", &InputError{Reason: fmt.Sprintf("upload larger than %d bytes", e.MaxUpload)}
	}
	if err = pdfs.Validate(data); err != nil {
		return "", &InputError{Reason: "not a valid PDF", Err: err}
	}
	// the text layer parser panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PANIC][EXTRACT] recovered: %v", r)
			text, err = "", &InputError{Reason: "unreadable PDF text", Err: fmt.Errorf("%v", r)}
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &InputError{Reason: "unreadable PDF", Err: err}
	}
	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[WARN][EXTRACT] page %d: %v", pageNum, err)
			continue
		}
		if b.Len()+len(content) > maxTextSize {
			break
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
