package chunker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sevigo/ragchunk/schema"
)

// Strategy identifies one chunking pipeline.
type Strategy string

const (
	StrategyStructure             Strategy = "structure"
	StrategySemantic              Strategy = "semantic"
	StrategyContext               Strategy = "context"
	StrategyGlobalContext         Strategy = "global_context"
	StrategyStructureContext      Strategy = "structure+context"
	StrategySemanticGlobalContext Strategy = "semantic+global_context"
	StrategyTripleHybrid          Strategy = "triple_hybrid"
)

// Pipeline consumes cleaned document text and emits the ordered chunk
// sequence for one strategy.
type Pipeline func(ctx context.Context, text string) ([]schema.Chunk, error)

// PipelineBuilder binds a pipeline to a configured Chunker.
type PipelineBuilder func(c *Chunker) Pipeline

var (
	registryMu sync.RWMutex
	registry   = make(map[Strategy]PipelineBuilder)
)

// RegisterStrategy adds a strategy to the dispatch table. Adding a strategy
// is additive: existing pipelines are never modified, and re-registering an
// existing name is rejected.
func RegisterStrategy(strategy Strategy, builder PipelineBuilder) error {
	if builder == nil {
		return fmt.Errorf("chunker: cannot register nil pipeline builder for %q", strategy)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[strategy]; exists {
		return fmt.Errorf("chunker: strategy %q already registered", strategy)
	}
	registry[strategy] = builder
	return nil
}

// Strategies lists every registered strategy in lexical order.
func Strategies() []Strategy {
	registryMu.RLock()
	defer registryMu.RUnlock()

	strategies := make([]Strategy, 0, len(registry))
	for s := range registry {
		strategies = append(strategies, s)
	}
	sort.Slice(strategies, func(i, j int) bool { return strategies[i] < strategies[j] })
	return strategies
}

// ParseStrategy validates a strategy name from external input such as a
// configuration file.
func ParseStrategy(name string) (Strategy, error) {
	strategy := Strategy(name)

	registryMu.RLock()
	defer registryMu.RUnlock()

	if _, ok := registry[strategy]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return strategy, nil
}

func pipelineFor(strategy Strategy) (PipelineBuilder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	builder, ok := registry[strategy]
	return builder, ok
}

func init() {
	builtins := map[Strategy]PipelineBuilder{
		StrategyStructure: func(c *Chunker) Pipeline {
			return func(_ context.Context, text string) ([]schema.Chunk, error) {
				return c.structureChunk(text, c.opts.chunkSize), nil
			}
		},
		StrategySemantic: func(c *Chunker) Pipeline {
			return func(ctx context.Context, text string) ([]schema.Chunk, error) {
				return c.semanticChunk(ctx, text, true)
			}
		},
		StrategyContext: func(c *Chunker) Pipeline {
			return func(ctx context.Context, text string) ([]schema.Chunk, error) {
				chunks, err := c.semanticChunk(ctx, text, true)
				if err != nil {
					return nil, err
				}
				return augmentContext(chunks, c.opts.contextWindow, c.opts.overlapSize), nil
			}
		},
		StrategyGlobalContext: func(c *Chunker) Pipeline {
			return func(ctx context.Context, text string) ([]schema.Chunk, error) {
				chunks, err := c.semanticChunk(ctx, text, false)
				if err != nil {
					return nil, err
				}
				chunks, err = c.embedChunks(ctx, chunks)
				if err != nil {
					return nil, err
				}
				return c.globalContextEmbed(ctx, text, chunks)
			}
		},
		StrategyStructureContext: func(c *Chunker) Pipeline {
			return func(_ context.Context, text string) ([]schema.Chunk, error) {
				chunks := c.structureChunk(text, c.opts.chunkSize)
				return augmentContext(chunks, c.opts.contextWindow, c.opts.overlapSize), nil
			}
		},
		StrategySemanticGlobalContext: func(c *Chunker) Pipeline {
			return func(ctx context.Context, text string) ([]schema.Chunk, error) {
				chunks, err := c.semanticChunk(ctx, text, true)
				if err != nil {
					return nil, err
				}
				chunks, err = c.embedChunks(ctx, chunks)
				if err != nil {
					return nil, err
				}
				return c.globalContextEmbed(ctx, text, chunks)
			}
		},
		StrategyTripleHybrid: func(c *Chunker) Pipeline {
			return func(ctx context.Context, text string) ([]schema.Chunk, error) {
				return c.tripleHybridChunk(ctx, text)
			}
		},
	}

	for strategy, builder := range builtins {
		if err := RegisterStrategy(strategy, builder); err != nil {
			panic(err)
		}
	}
}
