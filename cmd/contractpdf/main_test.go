package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/contracts"
	"github.com/zeptools/gw-contracts/pdfs"
)

func TestRenderTextFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(in, []byte(strings.Repeat("Cláusula de teste.\n", 150)), 0o644))
	out := filepath.Join(dir, "c.pdf")

	opts, err := loadOptions([]string{"-o", out, "--title", "Contrato", in})
	require.NoError(t, err)
	require.NoError(t, run(opts, nil, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	n, err := pdfs.PageCount(data)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
}

func TestRenderStdinToStdout(t *testing.T) {
	opts, err := loadOptions([]string{"--paper", "Letter"})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, run(opts, strings.NewReader("uma linha"), &out))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
}

func TestRenderTemplate(t *testing.T) {
	catalog, err := contracts.Load()
	require.NoError(t, err)
	tmpl, err := catalog.Get("canal")
	require.NoError(t, err)

	in := valuesFile{Values: map[string]string{}}
	in.Patient.Name = "JOSE"
	for _, f := range tmpl.Fields {
		in.Values[f.Key] = "1"
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	dir := t.TempDir()
	valuesPath := filepath.Join(dir, "v.json")
	require.NoError(t, os.WriteFile(valuesPath, data, 0o644))

	opts, err := loadOptions([]string{"--template", "canal", "--values", valuesPath})
	require.NoError(t, err)
	content, title, err := contentFor(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Title, title)
	assert.Contains(t, content, "JOSE")
}

func TestUnknownTemplateListsKeys(t *testing.T) {
	opts, err := loadOptions([]string{"--template", "nope"})
	require.NoError(t, err)
	_, _, err = contentFor(opts, nil)
	require.ErrorIs(t, err, contracts.ErrUnknownTemplate)
	assert.Contains(t, err.Error(), "canal")
}

func TestMergeAndExtract(t *testing.T) {
	dir := t.TempDir()
	g := pdfs.DefaultGeometry()
	g.Paper = pdfs.PaperSize{Name: "wide", Width: 3000, Height: 600}
	id, err := pdfs.NewRenderer(g).Render("NOME.....: ANA LIMA ENDERECO.: RUA 1 BAIRRO...: X CEP......: 75000-000 CNPJ/CPF.: 111.222.333-44", "", nil)
	require.NoError(t, err)
	a := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(a, id.Bytes, 0o644))

	opts, err := loadOptions([]string{"--extract", a})
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, run(opts, nil, &out))
	var got extractOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "ANA LIMA", got.Identity.Name)
	assert.Empty(t, got.Missing)

	opts, err = loadOptions([]string{"--merge", a, a})
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, run(opts, nil, &out))
	n, err := pdfs.PageCount(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
