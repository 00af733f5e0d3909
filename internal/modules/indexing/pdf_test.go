package indexing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"finqa/internal/api"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	failOn   string
	embedded []string
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	out := make([]*api.DocumentEmbedding, 0, len(docs))
	for _, doc := range docs {
		if doc.Title == f.failOn {
			return nil, errors.New("embedding backend unavailable")
		}

		f.mu.Lock()
		f.embedded = append(f.embedded, doc.Title)
		f.mu.Unlock()

		values := make([][]float32, len(doc.Chunks))
		for i := range doc.Chunks {
			values[i] = []float32{0.1, 0.2}
		}
		out = append(out, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: values,
		})
	}
	return out, nil
}

func (f *fakeEmbedder) GetDimensions() uint { return 2 }

func TestEmbedDocumentRequests(t *testing.T) {
	reqs := []*api.EmbedDocumentRequest{
		{Title: "wills", Chunks: []string{"chunk one", "chunk two"}},
		{Title: "trusts", Chunks: []string{"chunk three"}},
		{Title: "gift_tax", Chunks: []string{"chunk four"}},
	}
	embedder := &fakeEmbedder{}

	embeddings, err := embedDocumentRequests(context.Background(), embedder, reqs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(embeddings) != 3 {
		t.Fatalf("got %d embeddings, expected 3", len(embeddings))
	}

	titles := make([]string, 0, len(embeddings))
	for _, emb := range embeddings {
		titles = append(titles, emb.Title)
	}
	sort.Strings(titles)

	want := []string{"gift_tax", "trusts", "wills"}
	for i, title := range want {
		if titles[i] != title {
			t.Errorf("got titles %v, expected %v", titles, want)
			break
		}
	}
}

func TestEmbedDocumentRequestsAbortsOnError(t *testing.T) {
	reqs := []*api.EmbedDocumentRequest{
		{Title: "wills", Chunks: []string{"chunk one"}},
		{Title: "broken", Chunks: []string{"chunk two"}},
	}
	embedder := &fakeEmbedder{failOn: "broken"}

	_, err := embedDocumentRequests(context.Background(), embedder, reqs, nil)
	if err == nil {
		t.Fatal("expected error for failed document")
	}
}
