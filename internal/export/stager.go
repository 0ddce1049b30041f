// Package export writes validated tables as CSV extracts. Files are staged
// next to their final names and only renamed into place on Commit, so a
// failed run never leaves a half-written extract set behind.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// utf8BOM lets spreadsheet tools detect UTF-8 without guessing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File describes one written extract.
type File struct {
	Table    string
	Name     string // base name, e.g. dim_juiz.csv
	Path     string // final path once committed
	Rows     int
	Bytes    int64
	Checksum string // xxh3-64, 16 hex digits
}

// Stager writes extracts into dir as <table>.csv.tmp until Commit.
type Stager struct {
	dir    string
	bom    bool
	staged []File
}

// NewStager prepares dir for writing.
func NewStager(dir string, bom bool) (*Stager, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	return &Stager{dir: dir, bom: bom}, nil
}

// Dir is the output directory.
func (s *Stager) Dir() string { return s.dir }

func tmpPath(p string) string { return p + ".tmp" }

// Stage writes t to its temporary file: a header of the contract columns,
// then one line per row with values rendered by schema.Format.
func (s *Stager) Stage(t *transformer.Table) (File, error) {
	name := t.Contract.Name + ".csv"
	for _, f := range s.staged {
		if f.Name == name {
			return File{}, fmt.Errorf("export: %s already staged", name)
		}
	}
	final := filepath.Join(s.dir, name)
	out, err := os.Create(tmpPath(final))
	if err != nil {
		return File{}, fmt.Errorf("export: create: %w", err)
	}

	h := xxh3.New()
	cw := &countWriter{w: io.MultiWriter(out, h)}
	bw := bufio.NewWriter(cw)
	if err := writeCSV(bw, t, s.bom); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath(final))
		return File{}, fmt.Errorf("export: write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath(final))
		return File{}, fmt.Errorf("export: close %s: %w", name, err)
	}

	f := File{
		Table:    t.Contract.Name,
		Name:     name,
		Path:     final,
		Rows:     len(t.Rows),
		Bytes:    cw.n,
		Checksum: fmt.Sprintf("%016x", h.Sum64()),
	}
	s.staged = append(s.staged, f)
	return f, nil
}

func writeCSV(bw *bufio.Writer, t *transformer.Table, bom bool) error {
	if bom {
		if _, err := bw.Write(utf8BOM); err != nil {
			return err
		}
	}
	w := csv.NewWriter(bw)
	if err := w.Write(t.Contract.Columns()); err != nil {
		return err
	}
	rec := make([]string, len(t.Contract.Fields))
	for _, r := range t.Rows {
		for i, f := range t.Contract.Fields {
			rec[i] = schema.Format(f, r.V[i])
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// Commit renames every staged file into place and returns them in staging
// order. Extracts from an earlier run are moved aside to <name>.prev first;
// if any rename fails, the files already committed are moved back to their
// staged names and the earlier extracts are restored, so the directory holds
// either the whole new set or the whole old one.
func (s *Stager) Commit() ([]File, error) {
	done := make([]File, 0, len(s.staged))
	for _, f := range s.staged {
		if err := commitFile(f.Path); err != nil {
			rollback(done)
			return nil, fmt.Errorf("export: commit %s: %w", f.Name, err)
		}
		done = append(done, f)
	}
	for _, f := range done {
		_ = os.Remove(prevPath(f.Path))
	}
	out := s.staged
	s.staged = nil
	return out, nil
}

func prevPath(p string) string { return p + ".prev" }

func commitFile(p string) error {
	_ = os.Remove(prevPath(p))
	aside := false
	if _, err := os.Lstat(p); err == nil {
		if err := os.Rename(p, prevPath(p)); err != nil {
			return err
		}
		aside = true
	}
	if err := os.Rename(tmpPath(p), p); err != nil {
		if aside {
			_ = os.Rename(prevPath(p), p)
		}
		return err
	}
	return nil
}

// rollback undoes commitFile for files, newest first.
func rollback(files []File) {
	for i := len(files) - 1; i >= 0; i-- {
		p := files[i].Path
		_ = os.Rename(p, tmpPath(p))
		if _, err := os.Lstat(prevPath(p)); err == nil {
			_ = os.Rename(prevPath(p), p)
		}
	}
}

// Discard removes all staged files; committed files from earlier runs are
// untouched.
func (s *Stager) Discard() {
	for _, f := range s.staged {
		_ = os.Remove(tmpPath(f.Path))
	}
	s.staged = nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
