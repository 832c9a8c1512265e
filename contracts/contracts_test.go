package contracts

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/extract"
)

var patient = extract.Identity{
	Name:    "MARIA APARECIDA SOUZA",
	CPF:     "123.456.789-09",
	CEP:     "75345-959",
	Address: "RUA 7, QD 12 LT 4",
}

var clinic = Clinic{
	Unit:    "Abadia de Goiás",
	Address: "Av. Comercial, Qd 6 Lt 5, Centro",
	Surgeon: "Mariana Silva Xavier, CRO/GO 17928",
}

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	return c
}

func TestCatalogListsTenTemplates(t *testing.T) {
	c := loadCatalog(t)
	require.Equal(t, 10, c.Len())
	var keys []string
	for _, tmpl := range c.List() {
		keys = append(keys, tmpl.Key)
	}
	assert.Equal(t, []string{
		"enxerto", "implante", "ortodontia", "plano-odc", "preenchimento",
		"procedimentos-gerais", "protese", "implantes", "botox", "canal",
	}, keys)

	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestEveryTemplateUsesEveryField(t *testing.T) {
	c := loadCatalog(t)
	for _, tmpl := range c.List() {
		t.Run(tmpl.Key, func(t *testing.T) {
			values := make(map[string]string)
			for _, f := range tmpl.Fields {
				values[f.Key] = "val-" + f.Key
			}
			text, err := tmpl.Fill(values, patient, clinic)
			require.NoError(t, err)
			for _, f := range tmpl.Fields {
				assert.Contains(t, text, "val-"+f.Key)
			}
			assert.Contains(t, text, "Nome do Manifestante (CONTRATANTE): MARIA APARECIDA SOUZA")
			assert.Contains(t, text, "CPF: 123.456.789-09")
			assert.Contains(t, text, "Nome da Clínica (CONTRATADA): ODONTOCOMPANY")
			assert.Contains(t, text, "Cirurgião Dentista Responsável: Mariana Silva Xavier, CRO/GO 17928")
			assert.Contains(t, text, "Testemunha 2:")
			assert.Contains(t, text, "CONTRATO DE PRESTAÇÃO DE SERVIÇOS ODONTOLÓGICOS – "+tmpl.Heading)
		})
	}
}

func TestFillReportsAllMissingFields(t *testing.T) {
	c := loadCatalog(t)
	tmpl, err := c.Get("enxerto")
	require.NoError(t, err)

	_, err = tmpl.Fill(map[string]string{"dente": "  ", "valor_vista": "1000"}, patient, clinic)
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "enxerto", ie.Template)
	assert.Equal(t, []string{
		"dente", "data_vista", "valor_sinal", "data_sinal",
		"parcelas", "valor_parcela", "vencimento_parcelas",
	}, ie.Missing)
}

func TestFillAppliesDefaults(t *testing.T) {
	c := loadCatalog(t)
	tmpl, err := c.Get("canal")
	require.NoError(t, err)
	values := map[string]string{
		"valor_vista":         "1.200,00",
		"data_vista":          "10/02",
		"valor_sinal":         "200,00",
		"data_sinal":          "10/02",
		"parcelas":            "5",
		"valor_parcela":       "200,00",
		"vencimento_parcelas": "10",
	}
	text, err := tmpl.Fill(values, patient, Clinic{Name: "CLÍNICA X", Forum: "Goiânia/GO"})
	require.NoError(t, err)
	assert.Contains(t, text, "multa de mora de 5.0% e juros de 5.0% ao mês")
	assert.Contains(t, text, "Fórum da Comarca de Goiânia/GO")
	assert.Contains(t, text, "tabela da CLÍNICA X")
	assert.NotContains(t, text, "Peculiaridades")

	values["resto_pagamento"] = "boleto"
	text, err = tmpl.Fill(values, patient, clinic)
	require.NoError(t, err)
	assert.Contains(t, text, "Peculiaridades em relação ao meio de pagamento: boleto")
	assert.Contains(t, text, "Fórum da Comarca de Anápolis/GO")
}

func TestLoadFSRejectsBrokenCatalogs(t *testing.T) {
	blocks := &fstest.MapFile{Data: []byte(`{{define "x"}}x{{end}}`)}
	type testCase struct {
		name    string
		catalog string
		file    string
	}
	cases := []testCase{
		{"bad json", `{`, "ok"},
		{"unknown group", `{"templates":[{"key":"a","file":"a.txt","groups":["nope"]}]}`, "ok"},
		{"duplicate key", `{"templates":[{"key":"a","file":"a.txt"},{"key":"a","file":"a.txt"}]}`, "ok"},
		{"missing file", `{"templates":[{"key":"a","file":"b.txt"}]}`, "ok"},
		{"bad template", `{"templates":[{"key":"a","file":"a.txt"}]}`, "{{.V.x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"catalog.json":          {Data: []byte(c.catalog)},
				"templates/_blocks.txt": blocks,
				"templates/a.txt":       {Data: []byte(c.file)},
			}
			_, err := LoadFS(fsys)
			assert.Error(t, err)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "contrato_MARIA SOUZA.pdf", FileName(" MARIA SOUZA "))
	assert.Equal(t, "contrato_ab.pdf", FileName("a/b"))
	assert.Equal(t, "contrato_paciente.pdf", FileName(""))
	assert.True(t, strings.HasSuffix(CombinedFileName, ".pdf"))
}
