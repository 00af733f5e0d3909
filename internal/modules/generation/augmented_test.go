package generation_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"finqa/internal/api"
	"finqa/internal/executor"
	"finqa/internal/modules/generation"
	"finqa/internal/transport"
)

type cannedStream struct {
	chunks []string
	pos    int
	closed bool
}

func (s *cannedStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos += 1
	return chunk, nil
}

func (s *cannedStream) Close() error {
	s.closed = true
	return nil
}

type stubLM struct {
	stream   api.CompletionStream
	err      error
	lastChat api.ChatRequest
}

func (l *stubLM) Generate(ctx context.Context, req api.GenerationRequest) (api.CompletionStream, error) {
	return nil, errors.New("not implemented")
}

func (l *stubLM) Chat(ctx context.Context, req api.ChatRequest) (api.CompletionStream, error) {
	l.lastChat = req
	if l.err != nil {
		return nil, l.err
	}
	return l.stream, nil
}

type recordingStream struct {
	id   string
	sent []transport.MessageStreamPayload
}

func (s *recordingStream) Send(ctx context.Context, payload transport.MessageStreamPayload) error {
	s.sent = append(s.sent, payload)
	return nil
}

func (s *recordingStream) Recv(ctx context.Context) (*transport.MessageStreamPayload, error) {
	return nil, io.EOF
}

func (s *recordingStream) Text(ctx context.Context) (string, error) { return "", nil }

func (s *recordingStream) GetID() string { return s.id }

type stubTransport struct {
	stream *recordingStream
}

func (t *stubTransport) GetMessageStream(id string) (transport.MessageStream, error) {
	return t.stream, nil
}

func (t *stubTransport) SetTrace(ctx context.Context, trace *transport.RequestTrace) error {
	return nil
}

func (t *stubTransport) GetTrace(ctx context.Context, traceId string) (*transport.RequestTrace, error) {
	return nil, nil
}

func newAugmentedForTest(t *testing.T, lm *stubLM) *generation.AugmentedExecutor {
	t.Helper()

	exec, err := generation.NewAugmentedExecutor()
	if err != nil {
		t.Fatalf("failed to build executor: %v", err)
	}
	exec.DefaultLMProvider = lm
	return exec
}

func TestGenerateWithContext(t *testing.T) {
	lm := &stubLM{stream: &cannedStream{chunks: []string{"Estate ", "planning"}}}
	exec := newAugmentedForTest(t, lm)

	stream := &recordingStream{id: "task-1"}
	p := executor.NewExecutorParams("task-1", "What does a will do?",
		executor.WithTransport(&stubTransport{stream: stream}),
		executor.WithArgs(map[string]any{
			"context_docs": []*api.ScoredDocument{
				{Content: "A will distributes assets.", Score: 0.9},
				{Content: "Trusts avoid probate.", Score: 0.7},
			},
		}),
	)

	res := exec.Execute(context.Background(), p)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Operator != "gen_context" {
		t.Errorf("got operator %q, expected %q", res.Operator, "gen_context")
	}

	output, ok := executor.GetTypedResult[string](res, "generation_results")
	if !ok || output != "Estate planning" {
		t.Errorf("got (%q, %v), expected full generation output", output, ok)
	}

	if lm.lastChat.Query != "What does a will do?" {
		t.Errorf("got query %q, expected the task query", lm.lastChat.Query)
	}
	if !strings.Contains(lm.lastChat.SystemPrompt, "A will distributes assets.") ||
		!strings.Contains(lm.lastChat.SystemPrompt, "Trusts avoid probate.") {
		t.Error("expected retrieved documents in the system prompt")
	}

	if len(stream.sent) == 0 {
		t.Fatal("expected content messages on the message stream")
	}
	for _, msg := range stream.sent {
		if msg.Status != transport.StatusOK || msg.Type != transport.MessageTypeContent {
			t.Errorf("unexpected stream message: %+v", msg)
		}
	}
}

func TestGenerateWithContextMissingDocs(t *testing.T) {
	exec := newAugmentedForTest(t, &stubLM{stream: &cannedStream{}})

	p := executor.NewExecutorParams("task-2", "query",
		executor.WithTransport(&stubTransport{stream: &recordingStream{id: "task-2"}}),
	)

	res := exec.Execute(context.Background(), p)
	var argMissing executor.ErrArgMissing
	if !errors.As(res.Err, &argMissing) {
		t.Fatalf("got error %v, expected ErrArgMissing", res.Err)
	}
	if argMissing.ArgName != "context_docs" {
		t.Errorf("got arg name %q, expected %q", argMissing.ArgName, "context_docs")
	}
}

func TestGenerateWithContextProviderFailure(t *testing.T) {
	lm := &stubLM{err: errors.New("provider unavailable")}
	exec := newAugmentedForTest(t, lm)

	stream := &recordingStream{id: "task-3"}
	p := executor.NewExecutorParams("task-3", "query",
		executor.WithTransport(&stubTransport{stream: stream}),
		executor.WithArgs(map[string]any{
			"context_docs": []*api.ScoredDocument{{Content: "doc", Score: 0.5}},
		}),
	)

	res := exec.Execute(context.Background(), p)
	if res.Err == nil {
		t.Fatal("expected error when the provider fails")
	}

	if len(stream.sent) != 1 || stream.sent[0].Status != transport.StatusErr {
		t.Errorf("expected a single ERR message, got %+v", stream.sent)
	}
}
