package pdfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func relaxedConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge concatenates whole documents in order into one PDF.
func Merge(docs ...[]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, ErrNoDocs
	case 1:
		return bytes.Clone(docs[0]), nil
	}
	rsc := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		rsc[i] = bytes.NewReader(d)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(rsc, &buf, false, relaxedConf()); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}
	return buf.Bytes(), nil
}

// Validate checks data is a readable PDF in relaxed mode.
func Validate(data []byte) error {
	return api.Validate(bytes.NewReader(data), relaxedConf())
}

func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), relaxedConf())
}
