package api_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"finqa/internal/api"
)

type fakeCompletionStream struct {
	chunks []string
	err    error
	pos    int
	closed bool
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

func (s *fakeCompletionStream) Close() error {
	s.closed = true
	return nil
}

func TestStreamReadAll(t *testing.T) {
	stream := &fakeCompletionStream{
		chunks: []string{"The answer ", "is ", "B."},
	}

	got, err := api.StreamReadAll(context.Background(), stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The answer is B." {
		t.Errorf("got %q, expected %q", got, "The answer is B.")
	}
	if !stream.closed {
		t.Error("stream was not closed")
	}
}

func TestStreamReadAllError(t *testing.T) {
	wantErr := errors.New("provider failed")
	stream := &fakeCompletionStream{
		chunks: []string{"partial"},
		err:    wantErr,
	}

	got, err := api.StreamReadAll(context.Background(), stream)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got error %v, expected %v", err, wantErr)
	}
	if got != "partial" {
		t.Errorf("got %q, expected accumulated content before the error", got)
	}
}

type endlessCompletionStream struct{}

func (endlessCompletionStream) Recv() (string, error) { return "chunk", nil }
func (endlessCompletionStream) Close() error          { return nil }

func TestStreamReadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.StreamReadAll(ctx, endlessCompletionStream{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got error %v, expected context.Canceled", err)
	}
}
