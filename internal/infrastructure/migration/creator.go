package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/golang-migrate/migrate/v4/source"
)

// versionWidth is the zero padding of the shipped migration versions.
const versionWidth = 6

var headerTmpl = template.Must(template.New("header").Parse(
	`-- {{if eq .Direction "up"}}Migration{{else}}Rollback{{end}}: {{.Name}}
{{- if and .Description (eq .Direction "up")}}
-- Description: {{.Description}}
{{- end}}
-- Created: {{.Created}}

`))

// MigrationFile is a freshly scaffolded up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// Entry is one up migration found in a directory or in the embedded schema.
type Entry struct {
	Version uint
	Name    string // file name without .up.sql
}

// CreateMigration writes the next sequential pair into dir, creating dir if
// needed. The version continues from the highest one already in dir.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	version := fmt.Sprintf("%0*d", versionWidth, next)
	base := filepath.Join(dir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}
	created := time.Now().Format(time.RFC3339)
	if err := writeHeader(mf.UpPath, source.Up, mf, created); err != nil {
		return nil, err
	}
	if err := writeHeader(mf.DownPath, source.Down, mf, created); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeHeader(path string, dir source.Direction, mf *MigrationFile, created string) error {
	// O_EXCL: never overwrite a migration that already exists.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s migration: %w", dir, err)
	}
	defer f.Close()
	return headerTmpl.Execute(f, map[string]any{
		"Direction":   string(dir),
		"Name":        mf.Name,
		"Description": mf.Description,
		"Created":     created,
	})
}

// ListMigrations returns the up migrations in fsys ordered by version. A
// missing directory lists nothing. File names are parsed the way
// golang-migrate parses them, and only .sql files count.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	files, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m, err := source.Parse(name)
		if err != nil || m.Direction != source.Up {
			continue
		}
		out = append(out, Entry{Version: m.Version, Name: strings.TrimSuffix(name, ".up.sql")})
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// slugify keeps lower-case letters and digits and turns runs of spaces,
// dashes and underscores into one underscore.
func slugify(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLower(r) || unicode.IsDigit(r)) {
				return r
			}
			return -1
		}, w)
		if w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, "_")
}
