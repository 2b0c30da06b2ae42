package documentloaders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sevigo/ragchunk/schema"
)

// FileLoader reads a text file from disk and classifies its document type
// from the extension.
type FileLoader struct {
	path   string
	logger *slog.Logger
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader returns a loader for the file at path.
func NewFileLoader(path string, logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{
		path:   path,
		logger: logger.With("component", "file_loader"),
	}
}

// Load reads the file and returns a document typed by its extension.
// Markdown files become markup documents, HTML files hypertext, everything
// else generic plain text.
func (l *FileLoader) Load(ctx context.Context) (schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("%w: %s: %w", ErrFileNotReadable, l.path, err)
	}

	if !utf8.Valid(data) {
		return schema.Document{}, fmt.Errorf("%w: %s", ErrInvalidEncoding, l.path)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return schema.Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, l.path)
	}

	docType := TypeForExtension(filepath.Ext(l.path))
	l.logger.DebugContext(ctx, "File loaded",
		"path", l.path, "bytes", len(data), "document_type", string(docType))

	return schema.NewDocument(text, docType, map[string]any{
		MetaSource: l.path,
		MetaTitle:  titleFromPath(l.path),
	}), nil
}

// TypeForExtension maps a file extension to a document type. Unknown
// extensions fall back to generic.
func TypeForExtension(ext string) schema.DocumentType {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return schema.DocumentTypeMarkup
	case ".html", ".htm":
		return schema.DocumentTypeHypertext
	default:
		return schema.DocumentTypeGeneric
	}
}

// titleFromPath derives a human-readable title from the file name:
// "getting_started.md" becomes "Getting Started".
func titleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(name)
}
