package contracts

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"text/template"

	"github.com/go-json-experiment/json"
)

//go:embed catalog.json templates/*.txt
var assets embed.FS

const (
	catalogFile = "catalog.json"
	templateDir = "templates"
	blocksFile  = "_blocks.txt"
)

type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required,omitempty"`
	Default  string `json:"default,omitempty"`
}

type catalogEntry struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Heading string   `json:"heading"`
	File    string   `json:"file"`
	Fields  []Field  `json:"fields,omitempty"`
	Groups  []string `json:"groups,omitempty"`
}

type catalogFileData struct {
	Groups    map[string][]Field `json:"groups"`
	Templates []catalogEntry     `json:"templates"`
}

// Catalog is read-only after loading and safe for concurrent use.
type Catalog struct {
	byKey map[string]*Template
	order []*Template
}

// Load reads the catalog embedded in the binary.
func Load() (*Catalog, error) {
	return LoadFS(assets)
}

// LoadFS reads catalog.json and the templates directory from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("contracts: read catalog: %w", err)
	}
	var cf catalogFileData
	if err = json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("contracts: decode catalog: %w", err)
	}

	blocksText, err := fs.ReadFile(fsys, path.Join(templateDir, blocksFile))
	if err != nil {
		return nil, fmt.Errorf("contracts: read blocks: %w", err)
	}
	blocks, err := template.New(blocksFile).Option("missingkey=error").Parse(string(blocksText))
	if err != nil {
		return nil, fmt.Errorf("contracts: parse blocks: %w", err)
	}

	c := &Catalog{byKey: make(map[string]*Template, len(cf.Templates))}
	for _, e := range cf.Templates {
		if e.Key == "" {
			return nil, fmt.Errorf("contracts: template entry %q has no key", e.Title)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("contracts: duplicate template key %q", e.Key)
		}
		fields := append([]Field(nil), e.Fields...)
		for _, g := range e.Groups {
			groupFields, ok := cf.Groups[g]
			if !ok {
				return nil, fmt.Errorf("contracts: %s: unknown field group %q", e.Key, g)
			}
			fields = append(fields, groupFields...)
		}
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			if seen[f.Key] {
				return nil, fmt.Errorf("contracts: %s: duplicate field %q", e.Key, f.Key)
			}
			seen[f.Key] = true
		}

		text, err := fs.ReadFile(fsys, path.Join(templateDir, e.File))
		if err != nil {
			return nil, fmt.Errorf("contracts: %s: %w", e.Key, err)
		}
		set, err := blocks.Clone()
		if err != nil {
			return nil, err
		}
		if _, err = set.New(e.Key).Parse(string(text)); err != nil {
			return nil, fmt.Errorf("contracts: parse %s: %w", e.File, err)
		}
		t := &Template{
			Key:     e.Key,
			Title:   e.Title,
			Heading: e.Heading,
			Fields:  fields,
			set:     set,
		}
		c.byKey[e.Key] = t
		c.order = append(c.order, t)
	}
	log.Printf("[INFO][CONTRACTS] Loaded %d contract templates", len(c.order))
	return c, nil
}

func (c *Catalog) Get(key string) (*Template, error) {
	t, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	return t, nil
}

// List returns the templates in catalog order.
func (c *Catalog) List() []*Template {
	return append([]*Template(nil), c.order...)
}

func (c *Catalog) Len() int {
	return len(c.order)
}
