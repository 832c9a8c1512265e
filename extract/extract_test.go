package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/pdfs"
)

const sampleText = "CADASTRO DE CLIENTE NOME.....: MARIA APARECIDA SOUZA ENDERECO.: RUA 7, QD 12 LT 4\n" +
	"   SETOR CENTRAL BAIRRO...: CENTRO CIDADE...: ANAPOLIS CEP......: 75345-959 CNPJ/CPF.: 123.456.789-09"

func TestFromText(t *testing.T) {
	e := NewExtractor()

	type testCase struct {
		name   string
		text   string
		want   Identity
		misses []string
	}
	cases := []testCase{
		{
			name: "all fields",
			text: sampleText,
			want: Identity{
				Name:    "MARIA APARECIDA SOUZA",
				CPF:     "123.456.789-09",
				CEP:     "75345-959",
				Address: "RUA 7, QD 12 LT 4 SETOR CENTRAL",
			},
		},
		{
			name: "cpf without punctuation",
			text: "CNPJ/CPF.:12345678909",
			want: Identity{
				Name:    DefaultPlaceholder,
				CPF:     "12345678909",
				CEP:     DefaultPlaceholder,
				Address: DefaultPlaceholder,
			},
			misses: []string{FieldName, FieldCEP, FieldAddress},
		},
		{
			name: "only the address is flattened",
			text: "NOME.....: MARIA\nSOUZA ENDERECO.: RUA 1\n   CENTRO BAIRRO...: X",
			want: Identity{
				Name:    "MARIA\nSOUZA",
				CPF:     DefaultPlaceholder,
				CEP:     DefaultPlaceholder,
				Address: "RUA 1 CENTRO",
			},
			misses: []string{FieldCPF, FieldCEP},
		},
		{
			name: "nothing found",
			text: "unrelated document",
			want: Identity{
				Name:    DefaultPlaceholder,
				CPF:     DefaultPlaceholder,
				CEP:     DefaultPlaceholder,
				Address: DefaultPlaceholder,
			},
			misses: Fields,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, misses := e.FromText(c.text)
			assert.Equal(t, c.want, got)
			var fields []string
			for _, m := range misses {
				fields = append(fields, m.Field)
			}
			assert.Equal(t, c.misses, fields)
		})
	}
}

func TestCustomPlaceholder(t *testing.T) {
	e := &Extractor{Placeholder: "??"}
	id, misses := e.FromText("")
	assert.Len(t, misses, 4)
	assert.Equal(t, "??", id.Name)
	assert.Equal(t, "extract: name not found", misses[0].Error())
}

func TestFromPDF(t *testing.T) {
	g := pdfs.DefaultGeometry()
	g.Paper = pdfs.PaperSize{Name: "wide", Width: 3000, Height: 600}
	res, err := pdfs.NewRenderer(g).Render(sampleText, "", nil)
	require.NoError(t, err)

	id, misses, err := NewExtractor().FromPDF(res.Bytes)
	require.NoError(t, err)
	assert.Empty(t, misses)
	assert.Equal(t, "123.456.789-09", id.CPF)
	assert.Equal(t, "75345-959", id.CEP)
	assert.Equal(t, "MARIA APARECIDA SOUZA", id.Name)
}

func TestFromPDFRejectsBadUploads(t *testing.T) {
	e := &Extractor{MaxUpload: 16}

	type testCase struct {
		name string
		data []byte
	}
	cases := []testCase{
		{"empty", nil},
		{"too large", make([]byte, 17)},
		{"not a pdf", []byte("hello")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := e.FromPDF(c.data)
			var ie *InputError
			assert.True(t, errors.As(err, &ie), "got %v", err)
		})
	}
}
