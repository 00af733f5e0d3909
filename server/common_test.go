package server

import (
	"context"
	"errors"
	"io"
	"testing"

	"finqa/internal/transport"
)

type scriptedStream struct {
	payloads []transport.MessageStreamPayload
	pos      int
}

func (s *scriptedStream) Send(ctx context.Context, payload transport.MessageStreamPayload) error {
	return nil
}

func (s *scriptedStream) Recv(ctx context.Context) (*transport.MessageStreamPayload, error) {
	if s.pos >= len(s.payloads) {
		return nil, io.EOF
	}
	p := s.payloads[s.pos]
	s.pos += 1
	return &p, nil
}

func (s *scriptedStream) Text(ctx context.Context) (string, error) { return "", nil }

func (s *scriptedStream) GetID() string { return "test-stream" }

func TestCollectStreamContentAccumulates(t *testing.T) {
	stream := &scriptedStream{payloads: []transport.MessageStreamPayload{
		{ID: 0, Status: transport.StatusOK, Type: transport.MessageTypeContent, Content: "Hello "},
		{ID: 1, Status: transport.StatusOK, Type: transport.MessageTypeContent, Content: "world"},
		{ID: 2, Status: transport.StatusDone},
	}}

	got, err := collectStreamContent(context.Background(), "trace-1", stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("got %q, expected %q", got, "Hello world")
	}
}

func TestCollectStreamContentSkipsNonContent(t *testing.T) {
	stream := &scriptedStream{payloads: []transport.MessageStreamPayload{
		{ID: 0, Status: transport.StatusOK, Type: transport.MessageTypeDocument, Document: transport.Document{Title: "doc"}},
		{ID: 1, Status: transport.StatusOK, Type: transport.MessageTypeContent, Content: "B"},
		{ID: 2, Status: transport.StatusDone},
	}}

	got, err := collectStreamContent(context.Background(), "trace-2", stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "B" {
		t.Errorf("got %q, expected %q", got, "B")
	}
}

func TestCollectStreamContentError(t *testing.T) {
	stream := &scriptedStream{payloads: []transport.MessageStreamPayload{
		{ID: 0, Status: transport.StatusOK, Type: transport.MessageTypeContent, Content: "partial"},
		{ID: 1, Status: transport.StatusErr, Content: "something went wrong"},
	}}

	_, err := collectStreamContent(context.Background(), "trace-3", stream)
	if !errors.Is(err, errStreamFailed) {
		t.Fatalf("got error %v, expected errStreamFailed", err)
	}
}
