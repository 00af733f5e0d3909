package provider

import (
	"context"
	"io"
	"iter"
	"os"

	"google.golang.org/genai"

	"finqa/internal/api"
	"finqa/internal/llm"
)

const (
	geminiGenerationModel = "gemini-2.0-flash"
	geminiEmbeddingModel  = "gemini-embedding-exp-03-07"
	geminiVisionModel     = "gemini-2.0-flash-exp"
)

type GeminiProvider struct {
	client     *genai.Client
	vectorDims *int32
}

func NewGeminiProvider() *GeminiProvider {
	// New methods might need error return
	// to handle error returns from client libs like genai
	c, _ := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	p := &GeminiProvider{
		client:     c,
		vectorDims: new(int32),
	}
	*(p.vectorDims) = 1536
	return p
}

func (p GeminiProvider) Generate(ctx context.Context, req api.GenerationRequest) (api.CompletionStream, error) {
	config := &genai.GenerateContentConfig{
		Temperature: &req.Temperature,
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = req.MaxTokens
	}

	modelName := geminiGenerationModel
	if req.ModelName != "" {
		modelName = req.ModelName
	}

	if req.ResponseSchema != nil {
		config.ResponseSchema = parseResponseSchema(req.ResponseSchema)
		config.ResponseMIMEType = "application/json"
	}

	contents := genai.Text(req.Prompt)
	i := p.client.Models.GenerateContentStream(ctx, modelName, contents, config)

	next, stop := iter.Pull2(i)
	return &GeminiCompletionStream{
		next: next,
		stop: stop,
	}, nil
}

func (p GeminiProvider) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	contents := parseRequestHistory(req.History)
	contents = append(contents, genai.NewContentFromText(req.Query, genai.RoleUser))

	config := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, "")
	}

	modelName := geminiGenerationModel
	if req.ModelName != "" {
		modelName = req.ModelName
	}

	i := p.client.Models.GenerateContentStream(ctx, modelName, contents, config)

	next, stop := iter.Pull2(i)
	return &GeminiCompletionStream{
		next: next,
		stop: stop,
	}, nil
}

func (p GeminiProvider) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	contents := genai.Text(q)

	config := &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: p.vectorDims,
	}

	res, err := p.client.Models.EmbedContent(ctx, geminiEmbeddingModel, contents, config)
	if err != nil {
		return nil, err
	}

	vals := res.Embeddings[0].Values
	return vals, nil
}

func (p GeminiProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	embeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		contents := make([]*genai.Content, 0, len(doc.Chunks))
		for _, chunk := range doc.Chunks {
			content := genai.NewContentFromText(chunk, genai.RoleUser)
			contents = append(contents, content)
		}

		config := &genai.EmbedContentConfig{
			TaskType:             "RETRIEVAL_DOCUMENT",
			Title:                doc.Title,
			OutputDimensionality: p.vectorDims,
		}

		res, err := p.client.Models.EmbedContent(ctx, geminiEmbeddingModel, contents, config)
		if err != nil {
			return nil, err
		}

		values := make([][]float32, 0, len(res.Embeddings))
		for _, rEmbedding := range res.Embeddings {
			values = append(values, rEmbedding.Values)
		}

		docEmbed := &api.DocumentEmbedding{
			Title:  doc.Title,
			Source: doc.Source,
			Values: values,
			Chunks: doc.Chunks,
		}
		embeddings = append(embeddings, docEmbed)
	}

	return embeddings, nil
}

func (p GeminiProvider) GetDimensions() uint {
	return uint(*p.vectorDims)
}

func (p GeminiProvider) AnalyzeImage(ctx context.Context, req api.VisionRequest) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
	}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature: &req.Temperature,
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, "")
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = req.MaxTokens
	}
	if req.ResponseSchema != nil {
		config.ResponseSchema = parseResponseSchema(req.ResponseSchema)
		config.ResponseMIMEType = "application/json"
	}

	modelName := geminiVisionModel
	if req.ModelName != "" {
		modelName = req.ModelName
	}

	resp, err := p.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", err
	}

	return resp.Text(), nil
}

func parseRequestHistory(h []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, len(h))
	roleTypes := map[llm.MessageRole]genai.Role{
		llm.MessageRoleUser:      genai.RoleUser,
		llm.MessageRoleAssistant: genai.RoleModel,
	}
	for i, m := range h {
		c := genai.NewContentFromText(m.Text(), roleTypes[m.Role])
		contents[i] = c
	}
	return contents
}

func parseResponseSchema(s *api.Schema) *genai.Schema {
	schema := &genai.Schema{
		Description: s.Description,
		Title:       s.Title,
		Required:    s.Required,
		Type:        genai.Type(s.Type),
	}

	if s.Items != nil {
		schema.Items = parseResponseSchema(s.Items)
	}

	if s.Properties != nil {
		properties := make(map[string]*genai.Schema, 0)
		for k, v := range s.Properties {
			properties[k] = parseResponseSchema(v)
		}
		schema.Properties = properties
	}

	return schema
}

type GeminiCompletionStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s GeminiCompletionStream) Recv() (string, error) {
	res, err, valid := s.next()
	if !valid {
		// iterator is finished
		return "", io.EOF
	}

	if err != nil {
		return "", err
	}

	return res.Text(), nil
}

func (s GeminiCompletionStream) Close() error {
	s.stop()
	return nil
}
