package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"

	"finqa/internal/api"
	"finqa/internal/llm"
)

const openaiVisionModel = openai.GPT4o

type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider() *OpenAIProvider {
	c := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
	return &OpenAIProvider{
		client: c,
	}
}

func (p OpenAIProvider) Generate(ctx context.Context, req api.GenerationRequest) (api.CompletionStream, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:       openai.GPT4Dot1Nano,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Stream: true,
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}
	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = int(req.MaxTokens)
	}

	s, err := p.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, err
	}

	completionStream := &OpenAIChatStream{
		stream: s,
	}
	return completionStream, nil
}

func (p OpenAIProvider) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	messages := make([]openai.ChatCompletionMessage, 0)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	msgHistory := p.parseRequestHistory(req.History)
	if len(msgHistory) > 0 {
		messages = append(messages, msgHistory...)
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Query,
	})

	openaiReq := openai.ChatCompletionRequest{
		Model:    openai.GPT4Dot1Mini,
		Messages: messages,
		Stream:   true,
	}

	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}

	s, err := p.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, err
	}

	completionStream := &OpenAIChatStream{
		stream: s,
	}
	return completionStream, nil
}

func (p OpenAIProvider) AnalyzeImage(ctx context.Context, req api.VisionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	userParts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: req.Prompt,
		},
	}
	if req.Image != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.Image.MIMEType, base64.StdEncoding.EncodeToString(req.Image.Data))
		userParts = append(userParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: dataURL,
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: userParts,
	})

	openaiReq := openai.ChatCompletionRequest{
		Model:       openaiVisionModel,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.ModelName != "" {
		openaiReq.Model = req.ModelName
	}
	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = int(req.MaxTokens)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision request returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p OpenAIProvider) parseRequestHistory(h []llm.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(h))
	for i, m := range h {
		ccm := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Text(),
		}
		msgs[i] = ccm
	}
	return msgs
}

type OpenAIChatStream struct {
	stream *openai.ChatCompletionStream
}

func (s OpenAIChatStream) Recv() (string, error) {
	res, err := s.stream.Recv()
	if err != nil {
		return "", err
	}

	return res.Choices[0].Delta.Content, nil
}

func (s OpenAIChatStream) Close() error {
	return s.stream.Close()
}
