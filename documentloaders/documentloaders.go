// Package documentloaders reads source files into documents ready for
// chunking. Loaders classify the document type from the file extension so
// the structural parser picks the right heading scanner.
package documentloaders

import (
	"context"
	"errors"

	"github.com/sevigo/ragchunk/schema"
)

var (
	ErrEmptyDocument   = errors.New("documentloaders: document contains no text")
	ErrFileNotReadable = errors.New("documentloaders: file could not be read")
	ErrInvalidEncoding = errors.New("documentloaders: file is not valid UTF-8")
	ErrPDFNoText       = errors.New("documentloaders: no text extracted from PDF")
	ErrPDFUnreadable   = errors.New("documentloaders: failed to read PDF")
)

// Loader turns one source into a document.
type Loader interface {
	Load(ctx context.Context) (schema.Document, error)
}

// metadata keys shared by all loaders.
const (
	MetaSource = "source"
	MetaTitle  = "title"
	MetaPages  = "pages"
)
