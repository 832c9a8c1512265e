package responses

import (
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"
)

// WritePDFBytesWithFilename sends the PDF as a download.
func WritePDFBytesWithFilename(w http.ResponseWriter, filename string, PDFBytes []byte) {
	WritePDFResponseHeaders(w, filename, len(PDFBytes))
	_, err := w.Write(PDFBytes)
	if err != nil {
		log.Printf("[ERROR] writing PDF to response: %v", err)
	}
}

// WritePDFResponseHeaders write HTTP response headers for PDF response. i.e. headers are frozen
func WritePDFResponseHeaders(w http.ResponseWriter, filename string, size int) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", ContentDisposition("attachment", filename))
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK) // Response Header Sent & Frozen
}

// ContentDisposition encodes non-ASCII file names per RFC 2231.
func ContentDisposition(disposition, filename string) string {
	v := mime.FormatMediaType(disposition, map[string]string{"filename": filename})
	if v == "" {
		return fmt.Sprintf("%s; filename=%q", disposition, "download.pdf")
	}
	return v
}
