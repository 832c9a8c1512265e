package extract

import (
	"regexp"
	"strings"
)

const DefaultPlaceholder = "Informação não encontrada"

const (
	FieldName    = "name"
	FieldCPF     = "cpf"
	FieldCEP     = "cep"
	FieldAddress = "address"
)

// Identity holds the fields read from an identification document.
type Identity struct {
	Name    string `json:"name"`
	CPF     string `json:"cpf"`
	CEP     string `json:"cep"`
	Address string `json:"address"`
}

// Get returns a field by key, "" for unknown keys.
func (id Identity) Get(field string) string {
	switch field {
	case FieldName:
		return id.Name
	case FieldCPF:
		return id.CPF
	case FieldCEP:
		return id.CEP
	case FieldAddress:
		return id.Address
	}
	return ""
}

func (id *Identity) set(field, v string) {
	switch field {
	case FieldName:
		id.Name = v
	case FieldCPF:
		id.CPF = v
	case FieldCEP:
		id.CEP = v
	case FieldAddress:
		id.Address = v
	}
}

// Fields lists the identity keys in display order.
var Fields = []string{FieldName, FieldCPF, FieldCEP, FieldAddress}

var patterns = map[string]*regexp.Regexp{
	FieldName:    regexp.MustCompile(`NOME.....: \s?([\s\S]+?)\s?ENDERECO.: `),
	FieldCPF:     regexp.MustCompile(`CNPJ/CPF.:\s?(\d{3}\.?\d{3}\.?\d{3}-?\d{2})`),
	FieldCEP:     regexp.MustCompile(`CEP......:\s?(\d{5}-\d{3})`),
	FieldAddress: regexp.MustCompile(`ENDERECO.: \s?([\s\S]+?)\s?BAIRRO...: `),
}

// ExtractionMiss reports a field that was not found. The field keeps a placeholder.
type ExtractionMiss struct {
	Field string
}

func (m ExtractionMiss) Error() string {
	return "extract: " + m.Field + " not found"
}

// Extractor pulls identity fields out of document text.
type Extractor struct {
	Placeholder string // text substituted for a missing field
	MaxUpload   int64  // bytes; 0 means no limit
}

func NewExtractor() *Extractor {
	return &Extractor{Placeholder: DefaultPlaceholder}
}

// FromText matches every field pattern. Misses never abort extraction.
func (e *Extractor) FromText(text string) (Identity, []ExtractionMiss) {
	placeholder := e.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	var (
		id     Identity
		misses []ExtractionMiss
	)
	for _, field := range Fields {
		m := patterns[field].FindStringSubmatch(text)
		if m == nil {
			id.set(field, placeholder)
			misses = append(misses, ExtractionMiss{Field: field})
			continue
		}
		v := m[1]
		if field == FieldAddress {
			// the address spans lines in the text layer
			v = strings.Join(strings.Fields(v), " ")
		}
		id.set(field, v)
	}
	return id, misses
}
