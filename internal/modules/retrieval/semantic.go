package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"finqa/internal/api"
	"finqa/internal/executor"
	"finqa/internal/provider"
	"finqa/internal/registry"
	"finqa/internal/vector"
)

var semanticExecutorDescriptor = "retrieval.Semantic"

// defaultRetrievalLimit matches the retriever's default top-k.
const defaultRetrievalLimit = 3

func init() {
	exec, err := NewSemanticExecutor()
	if err != nil {
		slog.Error("failed to initialize executor", "name", semanticExecutorDescriptor, "err", err)
		return
	}

	err = registry.RegisterExecutor(semanticExecutorDescriptor, exec)
	if err != nil {
		slog.Error("failed to register executor", "name", semanticExecutorDescriptor)
	}
}

type SemanticExecutor struct {
	DefaultEmbedProvider provider.Embedder
	operators            map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error)
}

func NewSemanticExecutor() (*SemanticExecutor, error) {
	ep, err := provider.NewEmbedder(provider.EmbedderTypeGemini)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize default providers: %w", err)
	}

	e := &SemanticExecutor{
		DefaultEmbedProvider: ep,
	}
	e.operators = map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error){
		"dense": e.denseRetrieval,
	}
	return e, nil
}

func (e *SemanticExecutor) Execute(ctx context.Context, p *executor.ExecutorParams) *executor.ExecutorResult {
	if p.Operator == "" {
		p.Operator = "dense"
	}
	slog.Info("executing", "name", semanticExecutorDescriptor, "op", p.Operator, "query", p.GetQuery(), "id", p.GetTaskID())

	opFunc, exists := e.operators[p.Operator]
	if !exists {
		return e.buildResult(p.Operator, executor.ErrOperatorNotFound{
			ExecutorName: semanticExecutorDescriptor, OperatorName: p.Operator}, nil)
	}

	vals, err := opFunc(ctx, p)

	return e.buildResult(p.Operator, err, vals)
}

func (e *SemanticExecutor) denseRetrieval(ctx context.Context, p *executor.ExecutorParams) (map[string]any, error) {
	// 'dense' requires following parameter args:
	// collection_name - name of the collection to use for the vector store
	// limit (optional) - number of points to retrieve
	collectionName, err := executor.GetTypedArg[string](p, "collection_name")
	if err != nil {
		return nil, err
	}

	if p.VectorStore == nil {
		return nil, fmt.Errorf("operator failed: vector store is not initialized")
	}

	// workflow yaml args carry integers as uint64
	limit := uint(defaultRetrievalLimit)
	if l, err := executor.GetTypedArg[uint64](p, "limit"); err == nil && l > 0 {
		limit = uint(l)
	} else if l, err := executor.GetTypedArg[int](p, "limit"); err == nil && l > 0 {
		limit = uint(l)
	}

	vec, err := e.DefaultEmbedProvider.EmbedQuery(ctx, p.GetQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to embed query '%s': %w", p.GetQuery(), err)
	}

	queryParams := vector.NewQueryParams(
		collectionName,
		vec,
		vector.WithPayload(true),
		vector.WithLimit(limit),
	)

	points, err := p.VectorStore.Query(ctx, queryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to get results for query '%s': %w", p.GetQuery(), err)
	}

	scoredDocs := make([]*api.ScoredDocument, 0, len(points))
	for _, point := range points {
		t, ok := point.Payload["text"]
		if !ok {
			slog.Warn("malformed retrieved context point: missing 'text' field in payload", "id", point.ID, "payload", point.Payload)
			continue
		}
		scoredDocs = append(scoredDocs, &api.ScoredDocument{
			Content: t,
			Score:   float64(point.Score),
			Title:   point.Payload["title"],
			Url:     point.Payload["source"],
		})
	}

	return map[string]any{
		"context_points": points,
		"context_docs":   scoredDocs,
	}, nil
}

func (e *SemanticExecutor) buildResult(operator string, err error, values map[string]any) *executor.ExecutorResult {
	return &executor.ExecutorResult{
		Name:     semanticExecutorDescriptor,
		Operator: operator,
		Err:      err,
		Values:   values,
	}
}
