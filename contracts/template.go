package contracts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/zeptools/gw-contracts/extract"
)

const (
	DefaultClinicName = "ODONTOCOMPANY"
	DefaultForum      = "Anápolis/GO"
)

// Clinic fills the CONTRATADA block. Unit, Address and Surgeon come from the logged-in user.
type Clinic struct {
	Name    string `json:"name"`
	Unit    string `json:"unit"`
	Address string `json:"address"`
	Surgeon string `json:"surgeon"`
	Forum   string `json:"forum"`
}

func (c Clinic) withDefaults() Clinic {
	if c.Name == "" {
		c.Name = DefaultClinicName
	}
	if c.Forum == "" {
		c.Forum = DefaultForum
	}
	return c
}

type Template struct {
	Key     string
	Title   string
	Heading string
	Fields  []Field
	set     *template.Template
}

type fillData struct {
	Heading string
	Patient extract.Identity
	Clinic  Clinic
	Forum   string
	V       map[string]string
}

// Values resolves user input against the field list: trimmed values, defaults for
// empty ones, and the keys of required fields left empty.
func (t *Template) Values(values map[string]string) (map[string]string, []string) {
	v := make(map[string]string, len(t.Fields))
	var missing []string
	for _, f := range t.Fields {
		s := strings.TrimSpace(values[f.Key])
		if s == "" {
			s = f.Default
		}
		if s == "" && f.Required {
			missing = append(missing, f.Key)
		}
		v[f.Key] = s
	}
	return v, missing
}

// Fill interpolates the contract text. Every missing required field is reported
// at once in an *InputError.
func (t *Template) Fill(values map[string]string, patient extract.Identity, clinic Clinic) (string, error) {
	v, missing := t.Values(values)
	if len(missing) > 0 {
		return "", &InputError{Template: t.Key, Missing: missing}
	}
	clinic = clinic.withDefaults()
	data := fillData{
		Heading: t.Heading,
		Patient: patient,
		Clinic:  clinic,
		Forum:   clinic.Forum,
		V:       v,
	}
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, t.Key, data); err != nil {
		return "", fmt.Errorf("contracts: fill %s: %w", t.Key, err)
	}
	return buf.String(), nil
}

// FileName is the download name used for a single contract.
func FileName(patientName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(patientName))
	if name == "" {
		name = "paciente"
	}
	return "contrato_" + name + ".pdf"
}

const CombinedFileName = "contratos_combinados.pdf"
