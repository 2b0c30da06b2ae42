// Package qdrant persists chunks in a Qdrant collection. Each chunk becomes
// one point whose ID is derived deterministically from the owning document ID
// and the chunk index, so re-ingesting a document overwrites its previous
// points instead of duplicating them.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sevigo/ragchunk/embeddings"
	"github.com/sevigo/ragchunk/schema"
	"github.com/sevigo/ragchunk/vectorstores"
)

var (
	ErrMissingEmbedder     = errors.New("qdrant: embedder is required but not provided")
	ErrMissingVector       = errors.New("qdrant: chunk has no embedding and no embedder is configured")
	ErrEmptyDocumentID     = errors.New("qdrant: document ID cannot be empty")
	ErrInvalidLimit        = errors.New("qdrant: search limit must be positive")
	ErrInvalidURL          = errors.New("qdrant: invalid URL provided")
	ErrPartialBatchFailure = errors.New("qdrant: some upsert batches failed")
)

const (
	maxConcurrentBatches = 8
	retryDelay           = time.Second
	maxRetryDelay        = 30 * time.Second
)

// payload keys for the fixed chunk fields. Chunk metadata entries are stored
// under their own keys next to these.
const (
	payloadText          = "text"
	payloadDocumentID    = "document_id"
	payloadChunkIndex    = "chunk_index"
	payloadCharStart     = "char_start"
	payloadCharEnd       = "char_end"
	payloadHeading       = "heading"
	payloadHierarchy     = "section_hierarchy"
	payloadContextBefore = "context_before"
	payloadContextAfter  = "context_after"
)

// pointNamespace seeds the deterministic point IDs.
var pointNamespace = uuid.MustParse("8f3c6a7e-41d2-4a6b-9f0e-2b1c5d8e9a04")

// Store is a ChunkStore backed by a Qdrant collection.
type Store struct {
	client         *qdrant.Client
	embedder       embeddings.Embedder
	collectionName string
	logger         *slog.Logger
	options        options
	mu             sync.RWMutex
}

var _ vectorstores.ChunkStore = (*Store)(nil)
var _ vectorstores.CollectionManager = (*Store)(nil)

// New connects to Qdrant and returns a ready store.
func New(opts ...Option) (*Store, error) {
	storeOptions, err := parseOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logger := storeOptions.logger.With("component", "qdrant_store", "collection", storeOptions.collectionName)
	client, err := createQdrantClient(storeOptions, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	store := &Store{
		client:         client,
		embedder:       storeOptions.embedder,
		collectionName: storeOptions.collectionName,
		logger:         logger,
		options:        storeOptions,
	}

	logger.Info("Qdrant chunk store initialized", "config", storeOptions.String())
	return store, nil
}

func createQdrantClient(opts options, logger *slog.Logger) (*qdrant.Client, error) {
	portStr := opts.qdrantURL.Port()
	if portStr == "" {
		portStr = strconv.Itoa(defaultPort)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid port %q: %w", ErrInvalidURL, portStr, err)
	}

	hostname := opts.qdrantURL.Hostname()
	logger.Debug("Creating Qdrant client", "host", hostname, "port", port)

	config := &qdrant.Config{
		Host: hostname,
		Port: port,
	}
	if opts.apiKey != "" {
		config.APIKey = opts.apiKey
	}

	client, err := qdrant.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("client creation failed: %w", err)
	}
	return client, nil
}

// PointID returns the deterministic point ID for a chunk of a document.
func PointID(documentID string, chunkIndex int) string {
	name := documentID + "#" + strconv.Itoa(chunkIndex)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// AddChunks upserts one document's chunks. Chunks carrying a contextual
// embedding are stored under that vector; otherwise the plain embedding is
// used. Chunks without any vector are embedded here, which requires an
// embedder.
func (s *Store) AddChunks(ctx context.Context, documentID string, chunks []schema.Chunk, options ...vectorstores.Option) ([]string, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, ErrEmptyDocumentID
	}
	if len(chunks) == 0 {
		return []string{}, nil
	}

	start := time.Now()
	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	vectors, err := s.resolveVectors(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCollectionFor(ctx, collectionName, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("collection preparation failed: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		id := PointID(documentID, chunk.Index)
		ids[i] = id
		points[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vectors[i]}}},
			Payload: chunkToPayload(documentID, chunk),
		}
	}

	if err := s.upsertPointsInBatches(ctx, collectionName, points); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Chunks stored",
		"document_id", documentID, "chunks", len(chunks), "duration", time.Since(start))
	return ids, nil
}

// resolveVectors picks the stored vector for each chunk, embedding the texts
// of chunks that carry none.
func (s *Store) resolveVectors(ctx context.Context, chunks []schema.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	var missing []int
	for i, chunk := range chunks {
		switch {
		case chunk.ContextualEmbedding != nil:
			vectors[i] = chunk.ContextualEmbedding
		case chunk.Embedding != nil:
			vectors[i] = chunk.Embedding
		default:
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	if s.embedder == nil {
		return nil, ErrMissingVector
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = chunks[idx].Text
	}
	embedded, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("chunk embedding stage failed: %w", err)
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embedded), len(missing))
	}
	for i, idx := range missing {
		vectors[idx] = embedded[i]
	}
	return vectors, nil
}

func (s *Store) upsertPointsInBatches(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	batchSize := s.options.batchSize
	semaphore := make(chan struct{}, maxConcurrentBatches)
	errsChan := make(chan error, (len(points)+batchSize-1)/batchSize)
	var wg sync.WaitGroup

	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		wg.Add(1)
		go func(batch []*qdrant.PointStruct) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			if err := s.upsertWithRetry(ctx, collectionName, batch); err != nil {
				errsChan <- err
			}
		}(points[start:end])
	}

	wg.Wait()
	close(errsChan)

	var errs []error
	for err := range errsChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPartialBatchFailure, errors.Join(errs...))
	}
	return nil
}

func (s *Store) upsertWithRetry(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	var lastErr error
	delay := retryDelay

	for attempt := 0; attempt <= s.options.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}

		wait := true
		_, err := s.client.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Wait:           &wait,
			Points:         points,
		})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", s.options.retryAttempts+1, lastErr)
}

// SimilaritySearch embeds the query and returns the closest chunks, best
// first.
func (s *Store) SimilaritySearch(ctx context.Context, query string, limit int, options ...vectorstores.Option) ([]vectorstores.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		s.logger.WarnContext(ctx, "Empty query provided")
		return []vectorstores.ScoredChunk{}, nil
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if s.embedder == nil {
		return nil, ErrMissingEmbedder
	}

	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchResult, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: collectionName,
		Vector:         queryVector,
		Limit:          uint64(limit),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
		ScoreThreshold: &opts.ScoreThreshold,
		Filter:         buildQdrantFilter(opts.Filters),
	})
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			s.logger.WarnContext(ctx, "Collection not found during search", "collection", collectionName)
			return nil, vectorstores.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := searchResult.GetResult()
	scored := make([]vectorstores.ScoredChunk, len(results))
	for i, point := range results {
		scored[i] = vectorstores.ScoredChunk{
			Chunk: payloadToChunk(point.GetPayload()),
			Score: point.GetScore(),
		}
	}

	s.logger.DebugContext(ctx, "Similarity search completed",
		"collection", collectionName, "results", len(scored))
	return scored, nil
}

// DeleteDocument removes every point stored under documentID.
func (s *Store) DeleteDocument(ctx context.Context, documentID string, options ...vectorstores.Option) error {
	if strings.TrimSpace(documentID) == "" {
		return ErrEmptyDocumentID
	}

	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	wait := true
	_, err := s.client.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: buildQdrantFilter(map[string]any{payloadDocumentID: documentID}),
			},
		},
	})
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	s.logger.InfoContext(ctx, "Document chunks deleted", "document_id", documentID, "collection", collectionName)
	return nil
}

// EnsureCollection creates the store's collection with the given vector
// dimension if it does not exist yet.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return s.ensureCollectionFor(ctx, s.collectionName, dimension)
}

func (s *Store) ensureCollectionFor(ctx context.Context, collectionName string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.collectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	s.logger.InfoContext(ctx, "Creating collection",
		"collection", collectionName, "dimension", dimension)

	_, err = s.client.GetCollectionsClient().Create(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}

	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// DeleteCollection drops a collection entirely.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		name = s.collectionName
	}

	_, err := s.client.GetCollectionsClient().Delete(ctx, &qdrant.DeleteCollection{
		CollectionName: name,
	})
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	s.logger.InfoContext(ctx, "Collection deleted", "name", name)
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	resp, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list qdrant collections: %w", err)
	}

	collections := resp.GetCollections()
	names := make([]string, len(collections))
	for i, col := range collections {
		names[i] = col.GetName()
	}
	return names, nil
}

// Health verifies the connection to the Qdrant server.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func (s *Store) getCollectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.collectionName
}

func (s *Store) collectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: name,
	})
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func chunkToPayload(documentID string, chunk schema.Chunk) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(chunk.Metadata)+9)
	payload[payloadText] = stringValue(chunk.Text)
	payload[payloadDocumentID] = stringValue(documentID)
	payload[payloadChunkIndex] = intValue(int64(chunk.Index))
	payload[payloadCharStart] = intValue(int64(chunk.CharStart))
	payload[payloadCharEnd] = intValue(int64(chunk.CharEnd))

	if chunk.Heading != "" {
		payload[payloadHeading] = stringValue(chunk.Heading)
	}
	if len(chunk.SectionHierarchy) > 0 {
		payload[payloadHierarchy] = convertToQdrantValue(chunk.SectionHierarchy)
	}
	if chunk.ContextBefore != nil {
		payload[payloadContextBefore] = stringValue(*chunk.ContextBefore)
	}
	if chunk.ContextAfter != nil {
		payload[payloadContextAfter] = stringValue(*chunk.ContextAfter)
	}

	for key, value := range chunk.Metadata {
		if qValue := convertToQdrantValue(value); qValue != nil {
			payload[key] = qValue
		}
	}
	return payload
}

func payloadToChunk(payload map[string]*qdrant.Value) schema.Chunk {
	chunk := schema.Chunk{
		Metadata: make(map[string]any),
	}

	for key, value := range payload {
		switch key {
		case payloadText:
			chunk.Text = value.GetStringValue()
		case payloadDocumentID:
			chunk.Metadata[payloadDocumentID] = value.GetStringValue()
		case payloadChunkIndex:
			chunk.Index = int(value.GetIntegerValue())
		case payloadCharStart:
			chunk.CharStart = int(value.GetIntegerValue())
		case payloadCharEnd:
			chunk.CharEnd = int(value.GetIntegerValue())
		case payloadHeading:
			chunk.Heading = value.GetStringValue()
		case payloadHierarchy:
			for _, v := range value.GetListValue().GetValues() {
				chunk.SectionHierarchy = append(chunk.SectionHierarchy, v.GetStringValue())
			}
		case payloadContextBefore:
			before := value.GetStringValue()
			chunk.ContextBefore = &before
		case payloadContextAfter:
			after := value.GetStringValue()
			chunk.ContextAfter = &after
		default:
			if converted := convertFromQdrantValue(value); converted != nil {
				chunk.Metadata[key] = converted
			}
		}
	}
	return chunk
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(i int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}
}

func convertToQdrantValue(value any) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return stringValue(v)
	case int:
		return intValue(int64(v))
	case int32:
		return intValue(int64(v))
	case int64:
		return intValue(v)
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(v)}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	case []string:
		values := make([]*qdrant.Value, len(v))
		for i, str := range v {
			values[i] = stringValue(str)
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{
			ListValue: &qdrant.ListValue{Values: values},
		}}
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}
	default:
		return stringValue(fmt.Sprintf("%v", v))
	}
}

func convertFromQdrantValue(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(v.ListValue.GetValues()))
		for i, val := range v.ListValue.GetValues() {
			list[i] = convertFromQdrantValue(val)
		}
		return list
	case *qdrant.Value_NullValue:
		return nil
	default:
		return nil
	}
}

func buildQdrantFilter(filters map[string]any) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		var match *qdrant.Match

		switch v := value.(type) {
		case string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
		case int:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		case int64:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
		case bool:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
		case []string:
			match = &qdrant.Match{MatchValue: &qdrant.Match_Keywords{Keywords: &qdrant.RepeatedStrings{Strings: v}}}
		default:
			slog.Warn("Unsupported filter type for key", "key", key, "type", fmt.Sprintf("%T", v))
			continue
		}

		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: match,
				},
			},
		})
	}

	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
