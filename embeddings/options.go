package embeddings

const (
	defaultBatchSize      = 32
	defaultMaxConcurrency = 8
)

type options struct {
	batchSize      int
	maxConcurrency int
	stripNewLines  bool
}

func defaultOptions() options {
	return options{
		batchSize:      defaultBatchSize,
		maxConcurrency: defaultMaxConcurrency,
		stripNewLines:  true,
	}
}

type Option func(*options)

// WithBatchSize sets how many texts go to the provider per request.
func WithBatchSize(size int) Option {
	return func(o *options) {
		o.batchSize = size
	}
}

// WithMaxConcurrency bounds how many batches are embedded in parallel.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// WithStripNewLines controls replacing newlines with spaces before
// embedding. Enabled by default; most embedding models score texts with
// raw newlines worse.
func WithStripNewLines(strip bool) Option {
	return func(o *options) {
		o.stripNewLines = strip
	}
}
