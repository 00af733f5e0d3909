package provider

import (
	"context"
	"errors"

	"finqa/internal/api"
)

var (
	ErrInvalidLMType       = errors.New("no generation provider found for given type")
	ErrInvalidEmbedderType = errors.New("no embeddings provider found for given type")
	ErrInvalidRerankerType = errors.New("no reranker provider found for given type")
	ErrInvalidVisionType   = errors.New("no vision provider found for given type")
)

type LMType int

const (
	LMTypeGemini LMType = iota
	LMTypeOpenAI
)

// LM generates text completions.
type LM interface {
	Generate(ctx context.Context, req api.GenerationRequest) (api.CompletionStream, error)
	Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error)
}

func NewLM(t LMType) (LM, error) {
	switch t {
	case LMTypeGemini:
		return NewGeminiProvider(), nil
	case LMTypeOpenAI:
		return NewOpenAIProvider(), nil
	default:
		return nil, ErrInvalidLMType
	}
}

type EmbedderType int

const (
	EmbedderTypeGemini EmbedderType = iota
	EmbedderTypeCohere
)

// Embedder computes vector embeddings for queries and document chunks.
type Embedder interface {
	EmbedQuery(ctx context.Context, q string) ([]float32, error)
	EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error)
	GetDimensions() uint
}

func NewEmbedder(t EmbedderType) (Embedder, error) {
	switch t {
	case EmbedderTypeGemini:
		return NewGeminiProvider(), nil
	case EmbedderTypeCohere:
		return NewCohereProvider(), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

type RerankerType int

const (
	RerankerTypeCohere RerankerType = iota
)

// Reranker reorders retrieved documents by relevance to a query.
type Reranker interface {
	Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error)
}

func NewReranker(t RerankerType) (Reranker, error) {
	switch t {
	case RerankerTypeCohere:
		return NewCohereProvider(), nil
	default:
		return nil, ErrInvalidRerankerType
	}
}

type VisionType int

const (
	VisionTypeGemini VisionType = iota
	VisionTypeOpenAI
)

// Vision analyzes a single image together with a text prompt and
// returns the model's textual response.
type Vision interface {
	AnalyzeImage(ctx context.Context, req api.VisionRequest) (string, error)
}

func NewVision(t VisionType) (Vision, error) {
	switch t {
	case VisionTypeGemini:
		return NewGeminiProvider(), nil
	case VisionTypeOpenAI:
		return NewOpenAIProvider(), nil
	default:
		return nil, ErrInvalidVisionType
	}
}
