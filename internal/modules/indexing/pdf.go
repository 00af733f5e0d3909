// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"finqa/internal/api"
	"finqa/internal/executor"
	"finqa/internal/ingest"
	"finqa/internal/provider"
	"finqa/internal/registry"
	"finqa/internal/vector"
)

var pdfExecutorDescriptor = "indexing.PDF"

// embedConcurrency bounds in-flight embedding requests per indexing run.
const embedConcurrency = 4

func init() {
	exec, err := NewPDFExecutor()
	if err != nil {
		slog.Error("failed to initialize executor", "name", pdfExecutorDescriptor, "err", err)
		return
	}

	err = registry.RegisterExecutor(pdfExecutorDescriptor, exec)
	if err != nil {
		slog.Error("failed to register executor", "name", pdfExecutorDescriptor, "err", err)
	}
}

type PDFExecutor struct {
	DefaultEmbedProvider provider.Embedder
	operators            map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error)
}

func NewPDFExecutor() (*PDFExecutor, error) {
	ep, err := provider.NewEmbedder(provider.EmbedderTypeGemini)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize default providers: %w", err)
	}

	e := &PDFExecutor{
		DefaultEmbedProvider: ep,
	}
	e.operators = map[string]func(context.Context, *executor.ExecutorParams) (map[string]any, error){
		"index_pdf_dir": e.indexPdfDir,
	}
	return e, nil
}

func (e PDFExecutor) Execute(ctx context.Context, p *executor.ExecutorParams) *executor.ExecutorResult {
	if p.Operator == "" {
		p.Operator = "index_pdf_dir"
	}
	slog.Info("executing", "name", pdfExecutorDescriptor, "op", p.Operator, "id", p.GetTaskID())

	opFunc, exists := e.operators[p.Operator]
	if !exists {
		return e.buildResult(p.Operator, executor.ErrOperatorNotFound{
			ExecutorName: pdfExecutorDescriptor, OperatorName: p.Operator}, nil)
	}

	vals, err := opFunc(ctx, p)
	if err == nil {
		slog.Info("indexing results", "values", vals)
	}

	return e.buildResult(p.Operator, err, vals)
}

func (e PDFExecutor) indexPdfDir(ctx context.Context, p *executor.ExecutorParams) (map[string]any, error) {
	// 'index_pdf_dir' requires following parameter args:
	// path - directory containing the pdf files to index
	// collection_name - name of the collection to use for the vector store
	// Optional:
	// chunk_size, chunk_overlap - splitter settings
	// progress - render a progress bar while embedding
	path, err := executor.GetTypedArg[string](p, "path")
	if err != nil {
		return nil, err
	}

	collectionName, err := executor.GetTypedArg[string](p, "collection_name")
	if err != nil {
		return nil, err
	}

	if p.VectorStore == nil {
		return nil, fmt.Errorf("operator failed: vector store is not initialized")
	}

	chunkSize, _ := executor.GetTypedArg[int](p, "chunk_size")
	chunkOverlap, err := executor.GetTypedArg[int](p, "chunk_overlap")
	if err != nil {
		chunkOverlap = -1
	}
	chunker := ingest.NewChunker(chunkSize, chunkOverlap)

	showProgress := false
	if prog, err := executor.GetTypedArg[bool](p, "progress"); err == nil {
		showProgress = prog
	}

	if exists, err := p.VectorStore.CollectionExists(ctx, collectionName); err == nil {
		if !exists {
			slog.Info("requested collection not found", "name", collectionName)

			err := p.VectorStore.CreateCollection(ctx, vector.Collection{
				Name:       collectionName,
				Dimensions: e.DefaultEmbedProvider.GetDimensions(),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create collection: %w", err)
			}

			slog.Info("successfully created collection", "name", collectionName)
		}
	} else {
		return nil, fmt.Errorf("failed to communicate with vector store: %w", err)
	}

	docs, err := ingest.LoadDirectory(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	var wg sync.WaitGroup
	var docReqMu sync.Mutex
	docRequests := make([]*api.EmbedDocumentRequest, 0, len(docs))

	for _, doc := range docs {
		wg.Add(1)
		go func(doc *api.DocumentContent) {
			defer wg.Done()

			chunks, err := chunker.Split(doc.Text())
			if err != nil {
				slog.Error("failed to split document, skipping...", "title", doc.Title, "err", err)
				return
			}

			if len(chunks) > 0 {
				docReqMu.Lock()
				docRequests = append(docRequests, &api.EmbedDocumentRequest{
					Title:  doc.Title,
					Chunks: chunks,
				})
				docReqMu.Unlock()
			}
		}(doc)
	}
	wg.Wait()

	if len(docRequests) == 0 {
		return nil, fmt.Errorf("failed to index directory: no documents parsed")
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(docRequests)), "embedding documents")
	}

	embeddings, err := embedDocumentRequests(ctx, e.DefaultEmbedProvider, docRequests, bar)
	if err != nil {
		return nil, err
	}

	points := vector.CreatePoints(embeddings)
	err = p.VectorStore.Upsert(ctx, collectionName, points)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert points to vector store: %w", err)
	}

	return map[string]any{
		"documents_indexed": len(embeddings),
		"points_indexed":    len(points),
	}, nil
}

// embedDocumentRequests embeds documents one request per document,
// bounded by embedConcurrency. The first failed document aborts the
// whole batch.
func embedDocumentRequests(ctx context.Context, embedder provider.Embedder, reqs []*api.EmbedDocumentRequest, bar *progressbar.ProgressBar) ([]*api.DocumentEmbedding, error) {
	var mu sync.Mutex
	embeddings := make([]*api.DocumentEmbedding, 0, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for _, docReq := range reqs {
		g.Go(func() error {
			embedded, err := embedder.EmbedDocuments(gctx, []*api.EmbedDocumentRequest{docReq})
			if err != nil {
				return fmt.Errorf("failed to embed document '%s': %w", docReq.Title, err)
			}

			mu.Lock()
			embeddings = append(embeddings, embedded...)
			mu.Unlock()

			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e PDFExecutor) buildResult(operator string, err error, values map[string]any) *executor.ExecutorResult {
	return &executor.ExecutorResult{
		Name:     pdfExecutorDescriptor,
		Operator: operator,
		Err:      err,
		Values:   values,
	}
}
