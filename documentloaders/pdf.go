package documentloaders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sevigo/ragchunk/schema"
)

// PDFLoader extracts plain text from a PDF file. Extracted text is generic:
// PDFs carry no heading markup the structural parser could use, so pages are
// joined with blank lines and chunked by paragraph.
type PDFLoader struct {
	path   string
	logger *slog.Logger
}

var _ Loader = (*PDFLoader)(nil)

// NewPDFLoader returns a loader for the PDF at path.
func NewPDFLoader(path string, logger *slog.Logger) *PDFLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFLoader{
		path:   path,
		logger: logger.With("component", "pdf_loader"),
	}
}

// Load extracts the text of every page and returns a generic document. Pages
// without extractable text are skipped; a PDF yielding no text at all is an
// error.
func (l *PDFLoader) Load(ctx context.Context) (schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("%w: %s: %w", ErrFileNotReadable, l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return schema.Document{}, fmt.Errorf("%w: %s: %w", ErrFileNotReadable, l.path, err)
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return schema.Document{}, fmt.Errorf("%w: %s: %w", ErrPDFUnreadable, l.path, err)
	}

	numPages := reader.NumPage()
	l.logger.DebugContext(ctx, "PDF text extraction starting", "path", l.path, "pages", numPages)

	var pages []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return schema.Document{}, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			l.logger.WarnContext(ctx, "Skipping null page", "page", i, "path", l.path)
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.WarnContext(ctx, "Page text extraction failed", "page", i, "path", l.path, "error", err)
			continue
		}
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	if len(pages) == 0 {
		return schema.Document{}, fmt.Errorf("%w: %s", ErrPDFNoText, l.path)
	}

	l.logger.DebugContext(ctx, "PDF text extraction finished",
		"path", l.path, "pages_with_text", len(pages))

	return schema.NewDocument(strings.Join(pages, "\n\n"), schema.DocumentTypeGeneric, map[string]any{
		MetaSource: l.path,
		MetaTitle:  titleFromPath(l.path),
		MetaPages:  numPages,
	}), nil
}
