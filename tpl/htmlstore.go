package tpl

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"path"
	"strings"
	"unicode/utf8"
)

const FileSuffix = ".gohtml"

// HTMLTemplateStore loads .gohtml files from a file tree. Keys are the slash paths
// relative to the root without the suffix, e.g. "pages/login".
type HTMLTemplateStore struct {
	Funcs    template.FuncMap
	sources  map[string]string             // key -> file content
	Combined map[string]*template.Template // page key -> layout + partials + page
	layout   string
}

func NewHTMLTemplateStore(funcs template.FuncMap) *HTMLTemplateStore {
	return &HTMLTemplateStore{
		Funcs:    funcs,
		sources:  make(map[string]string),
		Combined: make(map[string]*template.Template),
	}
}

// LoadBaseTemplates reads every template file under tplRoot of fsys.
// Hidden files and directories are skipped.
func (s *HTMLTemplateStore) LoadBaseTemplates(fsys fs.FS, tplRoot string) error {
	tplRoot = path.Clean(tplRoot)
	err := fs.WalkDir( // Pre-order Depth-first Traversal
		fsys,
		tplRoot,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") && p != tplRoot {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(p, FileSuffix) {
				return nil
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			if !utf8.Valid(data) {
				return fmt.Errorf("file %s is not valid UTF-8", p)
			}
			key := strings.TrimSuffix(strings.TrimPrefix(p, tplRoot+"/"), FileSuffix)
			if _, exists := s.sources[key]; exists {
				return fmt.Errorf("duplicate template key detected: %s (file=%s)", key, p)
			}
			s.sources[key] = string(data)
			return nil
		},
	)
	if err != nil {
		return err
	}
	log.Printf("[INFO][TEMPLATE] Loaded %d templates from %s", len(s.sources), tplRoot)
	return nil
}

// Compose builds one executable template per page: the layout, every key under
// partialsDir, then the page itself. Pages are the keys under pagesDir.
func (s *HTMLTemplateStore) Compose(layoutKey, partialsDir, pagesDir string) error {
	layoutSrc, ok := s.sources[layoutKey]
	if !ok {
		return fmt.Errorf("layout %q not loaded", layoutKey)
	}
	base := template.New(layoutKey)
	if s.Funcs != nil {
		base = base.Funcs(s.Funcs)
	}
	if _, err := base.Parse(layoutSrc); err != nil {
		return fmt.Errorf("parse error in %s: %w", layoutKey, err)
	}
	for key, src := range s.sources {
		if !strings.HasPrefix(key, partialsDir+"/") {
			continue
		}
		if _, err := base.New(key).Parse(src); err != nil {
			return fmt.Errorf("parse error in %s: %w", key, err)
		}
	}
	for key, src := range s.sources {
		if !strings.HasPrefix(key, pagesDir+"/") {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err = t.New(key).Parse(src); err != nil {
			return fmt.Errorf("parse error in %s: %w", key, err)
		}
		s.Combined[strings.TrimPrefix(key, pagesDir+"/")] = t
	}
	s.layout = layoutKey
	log.Printf("[INFO][TEMPLATE] Composed %d pages with layout %s", len(s.Combined), layoutKey)
	return nil
}

// Execute renders page name through the layout.
func (s *HTMLTemplateStore) Execute(buf *bytes.Buffer, name string, data any) error {
	t, ok := s.Combined[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(buf, s.layout, data)
}

func (s *HTMLTemplateStore) Len() int {
	return len(s.Combined)
}
