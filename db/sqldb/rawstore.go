package sqldb

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"
)

// RawSQLStore holds statements keyed by "group.name".
type RawSQLStore struct {
	stmts map[string]string
}

func NewRawStore() *RawSQLStore {
	return &RawSQLStore{stmts: make(map[string]string)}
}

func (s *RawSQLStore) Set(key string, rawStmt string) {
	s.stmts[key] = rawStmt
}

func (s *RawSQLStore) Get(key string) (string, bool) {
	stmt, exists := s.stmts[key]
	return stmt, exists
}

// MustGet panics on a missing key; statements are loaded at startup.
func (s *RawSQLStore) MustGet(key string) string {
	stmt, ok := s.stmts[key]
	if !ok {
		panic(fmt.Sprintf("sqldb: raw statement %q not loaded", key))
	}
	return stmt
}

func (s *RawSQLStore) Len() int {
	return len(s.stmts)
}

// Load reads the statements in dir of fsys into the group.
// A file named <name>.<dbType> is used as-is and wins over <name>.sql.
// Standard <name>.sql files use '?' placeholders, converted for dbType.
func (s *RawSQLStore) Load(fsys fs.FS, dir, group, dbType string) error {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read sql dir %q: %w", dir, err)
	}
	prefix := PlaceholderPrefixForDBType[dbType]
	dialect := make(map[string]bool)
	cnt := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		filename := f.Name()
		ext := path.Ext(filename)
		name := strings.TrimSuffix(filename, ext)
		ext = strings.TrimPrefix(ext, ".")
		if ext != dbType && ext != "sql" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, filename))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filename, err)
		}
		key := group + "." + name
		if _, exists := s.Get(key); !exists {
			cnt++
		}
		switch {
		case ext == dbType:
			s.Set(key, string(data))
			dialect[key] = true
		case !dialect[key]:
			s.Set(key, ReplaceStaticPlaceholders(string(data), prefix))
		}
	}
	log.Printf("[INFO][SQLDB] %d raw stmts loaded for group %s (%s)", cnt, group, dbType)
	return nil
}
