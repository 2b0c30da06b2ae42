package qdrant

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sevigo/ragchunk/embeddings"
)

const (
	defaultHost = "localhost"
	defaultPort = 6334
)

var ErrInvalidOptions = errors.New("qdrant: invalid options provided")

// options holds all configuration options for the Qdrant chunk store.
type options struct {
	collectionName string
	qdrantURL      url.URL
	embedder       embeddings.Embedder
	apiKey         string
	logger         *slog.Logger
	useTLS         bool
	retryAttempts  int
	batchSize      int
}

// Option defines a function type for configuring Qdrant store options.
type Option func(*options)

// WithCollectionName sets the collection chunks are stored in.
func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = strings.TrimSpace(name)
	}
}

// WithLogger sets the logger for the Qdrant store.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithURL sets the Qdrant server URL.
func WithURL(qdrantURL url.URL) Option {
	return func(opts *options) {
		opts.qdrantURL = qdrantURL
	}
}

// WithHostAndPort sets the Qdrant server host and port.
func WithHostAndPort(host string, port int) Option {
	return func(opts *options) {
		if host != "" && port > 0 {
			opts.qdrantURL = url.URL{
				Scheme: "http",
				Host:   fmt.Sprintf("%s:%d", host, port),
			}
		}
	}
}

// WithEmbedder sets the embedder used for query embedding and for chunks
// that arrive without vectors.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *options) {
		opts.embedder = embedder
	}
}

// WithAPIKey sets the API key for Qdrant authentication.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTLS enables or disables TLS for the Qdrant connection.
func WithTLS(useTLS bool) Option {
	return func(opts *options) {
		opts.useTLS = useTLS
		if opts.qdrantURL.Host != "" {
			if useTLS {
				opts.qdrantURL.Scheme = "https"
			} else {
				opts.qdrantURL.Scheme = "http"
			}
		}
	}
}

// WithRetryAttempts sets the number of retry attempts for failed upserts.
func WithRetryAttempts(attempts int) Option {
	return func(opts *options) {
		if attempts >= 0 {
			opts.retryAttempts = attempts
		}
	}
}

// WithBatchSize sets the batch size for bulk upserts.
func WithBatchSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.batchSize = size
		}
	}
}

func applyDefaults(opts *options) {
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	if opts.retryAttempts == 0 {
		opts.retryAttempts = 3
	}

	if opts.batchSize == 0 {
		opts.batchSize = 100
	}

	if opts.qdrantURL.Host == "" {
		scheme := "http"
		if opts.useTLS {
			scheme = "https"
		}
		opts.qdrantURL = url.URL{
			Scheme: scheme,
			Host:   fmt.Sprintf("%s:%d", defaultHost, defaultPort),
		}
	}
}

func (opts *options) validate() error {
	if strings.TrimSpace(opts.collectionName) == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidOptions)
	}

	if opts.batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidOptions)
	}

	if opts.qdrantURL.Scheme != "http" && opts.qdrantURL.Scheme != "https" {
		return fmt.Errorf("%w: URL scheme must be http or https", ErrInvalidOptions)
	}

	return nil
}

func parseOptions(opts ...Option) (options, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	applyDefaults(&o)
	if err := o.validate(); err != nil {
		return o, err
	}
	return o, nil
}

// String returns a string representation of the options, excluding
// sensitive data.
func (opts *options) String() string {
	parts := []string{
		"collection=" + opts.collectionName,
		"host=" + opts.qdrantURL.Host,
	}
	if opts.apiKey != "" {
		parts = append(parts, "has_api_key=true")
	}
	if opts.embedder != nil {
		parts = append(parts, "has_embedder=true")
	}
	return "QdrantOptions{" + strings.Join(parts, ", ") + "}"
}
