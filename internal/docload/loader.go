// Package docload extracts plain text from uploaded project documents
// (plain text, Markdown and PDF).
package docload

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"
)

// DefaultMaxSize caps uploads at 10MB.
const DefaultMaxSize int64 = 10 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("unsupported document type (use .txt, .md or .pdf)")
	ErrTooLarge        = errors.New("document too large")
	ErrNotText         = errors.New("document is not valid UTF-8 text")
)

// Kind is a supported document format.
type Kind string

const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindPDF      Kind = "pdf"
)

// KindOf maps a file name to its document kind.
func KindOf(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return KindText, nil
	case ".md", ".markdown":
		return KindMarkdown, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(name))
	}
}

// Loader reads documents from a filesystem or from uploaded bytes.
type Loader struct {
	fs      afero.Fs
	maxSize int64
}

// NewLoader creates a loader. maxSize <= 0 uses DefaultMaxSize.
func NewLoader(fs afero.Fs, maxSize int64) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Loader{fs: fs, maxSize: maxSize}
}

// ReadFile loads a document from disk, checking type and size before reading.
func (l *Loader) ReadFile(path string) (name string, data []byte, err error) {
	name = filepath.Base(path)
	if _, err := KindOf(name); err != nil {
		return name, nil, err
	}
	info, err := l.fs.Stat(path)
	if err != nil {
		return name, nil, fmt.Errorf("stat document: %w", err)
	}
	if info.Size() > l.maxSize {
		return name, nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), l.maxSize)
	}
	data, err = afero.ReadFile(l.fs, path)
	if err != nil {
		return name, nil, fmt.Errorf("read document: %w", err)
	}
	return name, data, nil
}

// ReadDocument extracts plain text from an uploaded document.
func (l *Loader) ReadDocument(name string, data []byte) (string, error) {
	kind, err := KindOf(name)
	if err != nil {
		return "", err
	}
	if int64(len(data)) > l.maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), l.maxSize)
	}

	switch kind {
	case KindPDF:
		return extractPDF(data)
	default:
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", ErrNotText
		}
		return strings.TrimSpace(string(data)), nil
	}
}

// extractPDF concatenates the plain text of every page.
func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("decode pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("decode pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("decode pdf page %d: %w", i, err)
		}
		sb.WriteString(content)
	}
	return strings.TrimSpace(sb.String()), nil
}
