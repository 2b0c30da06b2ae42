package ollama

import (
	"log/slog"

	"github.com/ollama/ollama/api"
)

type options struct {
	model  string
	client *api.Client
	logger *slog.Logger
}

type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithModel sets the embedding model name, e.g. "nomic-embed-text".
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithClient overrides the API client built from the environment.
func WithClient(client *api.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
