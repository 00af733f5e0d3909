package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"golang.org/x/sync/errgroup"

	"finqa/internal/api"
)

// EmbedMaxTexts is the largest batch the Cohere embed endpoint accepts.
const EmbedMaxTexts = 96

const (
	cohereEmbedModel  = "embed-multilingual-v3.0"
	cohereRerankModel = "rerank-v3.5"
)

type embedRequestWrapper struct {
	Title   string
	Source  string
	Chunks  []string
	Request *cohere.V2EmbedRequest
}

type embedResponseWrapper struct {
	Title    string
	Source   string
	Chunks   []string
	Response *cohere.EmbedByTypeResponse
}

type CohereProvider struct {
	client *cohereclient.Client
}

func NewCohereProvider() *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)
	return &CohereProvider{
		client: c,
	}
}

func (p CohereProvider) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	resp, err := p.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          []string{q},
			Model:          cohereEmbedModel,
			InputType:      cohere.EmbedInputTypeSearchQuery,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}

	f32 := make([]float32, 0, len(resp.Embeddings.Float[0]))
	for _, f := range resp.Embeddings.Float[0] {
		f32 = append(f32, float32(f))
	}

	return f32, nil
}

func (p CohereProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	embedRequests := make([]*embedRequestWrapper, 0, len(docs))
	for _, doc := range docs {
		for start := 0; start < len(doc.Chunks); start += EmbedMaxTexts {
			end := min(start+EmbedMaxTexts, len(doc.Chunks))

			req := &cohere.V2EmbedRequest{
				Texts:          doc.Chunks[start:end],
				Model:          cohereEmbedModel,
				InputType:      cohere.EmbedInputTypeSearchDocument,
				EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
			}
			embedRequests = append(embedRequests, &embedRequestWrapper{
				Title:   doc.Title,
				Source:  doc.Source,
				Chunks:  doc.Chunks[start:end],
				Request: req,
			})
		}
	}

	var embedRespMu sync.Mutex
	embedResponses := make([]*embedResponseWrapper, 0, len(embedRequests))

	g, gctx := errgroup.WithContext(ctx)

	for _, ereq := range embedRequests {
		g.Go(func() error {
			ctxTimeout, cancel := context.WithTimeout(gctx, 30*time.Second)
			defer cancel()

			resp, err := p.client.V2.Embed(ctxTimeout, ereq.Request)
			if err != nil {
				return fmt.Errorf("embed request failed for document '%s': %w", ereq.Title, err)
			}

			embedRespMu.Lock()
			embedResponses = append(embedResponses, &embedResponseWrapper{
				Title:    ereq.Title,
				Source:   ereq.Source,
				Chunks:   ereq.Chunks,
				Response: resp,
			})
			embedRespMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	docEmbeddings := make([]*api.DocumentEmbedding, 0, len(embedResponses))
	for _, eresp := range embedResponses {
		vectors := make([][]float32, 0, len(eresp.Response.Embeddings.Float))
		for _, cohereVector := range eresp.Response.Embeddings.Float {
			vector := make([]float32, 0, len(cohereVector))
			for _, f64 := range cohereVector {
				vector = append(vector, float32(f64))
			}
			vectors = append(vectors, vector)
		}
		docEmbeddings = append(docEmbeddings, &api.DocumentEmbedding{
			Title:  eresp.Title,
			Source: eresp.Source,
			Chunks: eresp.Chunks,
			Values: vectors,
		})
	}

	return docEmbeddings, nil
}

func (p CohereProvider) GetDimensions() uint {
	return 1024
}

func (p CohereProvider) Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'query' in request")
	}

	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'documents' in request")
	}

	returnDocuments := true
	coReq := &cohere.V2RerankRequest{
		Query:           req.Query,
		Documents:       req.Documents,
		Model:           cohereRerankModel,
		ReturnDocuments: &returnDocuments,
	}

	if req.ModelName != "" {
		coReq.Model = req.ModelName
	}

	if req.Limit != 0 {
		coReq.TopN = &req.Limit
	}

	threshold := float64(api.RerankScoreThreshold)
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	resp, err := p.client.V2.Rerank(ctx, coReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	scoredDocs := make([]*api.ScoredDocument, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.RelevanceScore >= threshold {
			scoredDocs = append(scoredDocs, &api.ScoredDocument{
				Content: result.Document.Text,
				Score:   result.RelevanceScore,
			})
		}
	}

	return &api.RerankResponse{
		Query:     req.Query,
		Documents: scoredDocs,
		ModelName: coReq.Model,
	}, nil
}
