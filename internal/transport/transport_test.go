package transport_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"finqa/internal/transport"
)

type fakeCompletionStream struct {
	chunks []string
	err    error
	pos    int
}

func (s *fakeCompletionStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos += 1
	return chunk, nil
}

func (s *fakeCompletionStream) Close() error { return nil }

type fakeMessageStream struct {
	sent []transport.MessageStreamPayload
}

func (s *fakeMessageStream) Send(ctx context.Context, payload transport.MessageStreamPayload) error {
	s.sent = append(s.sent, payload)
	return nil
}

func (s *fakeMessageStream) Recv(ctx context.Context) (*transport.MessageStreamPayload, error) {
	return nil, io.EOF
}

func (s *fakeMessageStream) Text(ctx context.Context) (string, error) { return "", nil }

func (s *fakeMessageStream) GetID() string { return "fake" }

func TestProcessCompletionStream(t *testing.T) {
	cs := &fakeCompletionStream{chunks: []string{"hello ", "world"}}
	ms := &fakeMessageStream{}

	output, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "hello world" {
		t.Errorf("got %q, expected %q", output, "hello world")
	}

	if len(ms.sent) != 2 {
		t.Fatalf("got %d messages, expected 2", len(ms.sent))
	}
	for _, msg := range ms.sent {
		if msg.Status != transport.StatusOK {
			t.Errorf("got status %q, expected OK", msg.Status)
		}
		if msg.Type != transport.MessageTypeContent {
			t.Errorf("got type %v, expected content", msg.Type)
		}
	}
	if ms.sent[0].Content != "hello " || ms.sent[1].Content != "world" {
		t.Errorf("unexpected message contents: %v", ms.sent)
	}
}

func TestProcessCompletionStreamSkipsBlankChunks(t *testing.T) {
	cs := &fakeCompletionStream{chunks: []string{"a", "  ", "b"}}
	ms := &fakeMessageStream{}

	output, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "a  b" {
		t.Errorf("got %q, expected full accumulated output", output)
	}

	// blank chunk is folded into the next message
	if len(ms.sent) != 2 {
		t.Fatalf("got %d messages, expected 2", len(ms.sent))
	}
	if ms.sent[1].Content != "  b" {
		t.Errorf("got %q, expected blank chunk prepended to next message", ms.sent[1].Content)
	}
}

func TestProcessCompletionStreamError(t *testing.T) {
	wantErr := errors.New("stream broke")
	cs := &fakeCompletionStream{chunks: []string{"partial"}, err: wantErr}
	ms := &fakeMessageStream{}

	output, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got error %v, expected %v", err, wantErr)
	}
	if output != "partial" {
		t.Errorf("got %q, expected partial output", output)
	}

	last := ms.sent[len(ms.sent)-1]
	if last.Status != transport.StatusErr {
		t.Errorf("got status %q, expected ERR sent to message stream", last.Status)
	}
}
