package gemini

import (
	"log/slog"
	"os"
)

type options struct {
	apiKey string
	model  string
	logger *slog.Logger
}

type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		model:  defaultEmbeddingModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return o
}

func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
