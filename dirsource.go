package rung

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// migrationFile is the on-disk representation of a migration: one JSON
// document per migration, named "<migration name>.json". The migration
// name comes from the filename so that directory listings sort in
// application order.
type migrationFile struct {
	Description  string      `json:"description,omitempty"`
	Irreversible bool        `json:"irreversible,omitempty"`
	Forward      []Operation `json:"forward"`
	Backward     []Operation `json:"backward,omitempty"`
}

// DirSource loads migrations from a directory of JSON files.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) ListAvailable() ([]*Migration, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []*Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		migration, err := s.readMigration(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	return migrations, nil
}

func (s *DirSource) readMigration(filename string) (*Migration, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("reading migration %s: %w", filename, err)
	}

	var file migrationFile
	if err = json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", filename, err)
	}

	migration := &Migration{
		Name:         strings.TrimSuffix(filename, ".json"),
		Description:  file.Description,
		Forward:      file.Forward,
		Backward:     file.Backward,
		Irreversible: file.Irreversible,
	}
	if err = migration.validate(); err != nil {
		return nil, err
	}
	return migration, nil
}

// WriteMigration serializes a migration into the source directory, creating
// it if necessary. Intended for tooling that scaffolds new migrations.
func (s *DirSource) WriteMigration(m *Migration) error {
	if err := m.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating migrations directory: %w", err)
	}

	path := filepath.Join(s.dir, m.Name+".json")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateMigration, m.Name)
	}

	raw, err := json.MarshalIndent(migrationFile{
		Description:  m.Description,
		Irreversible: m.Irreversible,
		Forward:      m.Forward,
		Backward:     m.Backward,
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, raw, 0o644)
}
