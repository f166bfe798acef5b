// Package export writes generated requirement documents to disk.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/spf13/afero"
)

// DefaultFileName is the download name used by every surface.
const DefaultFileName = "requirements.md"

// ErrNoDocument is returned when the record has no generated document yet.
var ErrNoDocument = errors.New("no requirements document generated yet")

// Exporter writes documents through an afero filesystem.
type Exporter struct {
	fs afero.Fs
}

// New creates an exporter. A nil fs writes to the OS filesystem.
func New(fs afero.Fs) *Exporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Exporter{fs: fs}
}

// Document returns the exportable Markdown for a record.
func Document(r *project.Record) ([]byte, error) {
	if r == nil || !r.HasDocument() {
		return nil, ErrNoDocument
	}
	doc := r.FinalDocument
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	return []byte(doc), nil
}

// Write saves the record's document into dir and returns the written path.
// An existing file is replaced.
func (e *Exporter) Write(r *project.Record, dir string) (string, error) {
	data, err := Document(r)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, DefaultFileName)
	if err := afero.WriteFile(e.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", DefaultFileName, err)
	}
	return path, nil
}
