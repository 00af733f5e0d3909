package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"

	"finqa/internal/api"
)

// LoadDirectory reads every PDF in dir and returns one DocumentContent
// per file, a page per extracted PDF page. The document title is the
// file name without its extension.
func LoadDirectory(ctx context.Context, dir string) ([]*api.DocumentContent, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf files in %q: %w", dir, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no pdf files found in %q", dir)
	}

	docs := make([]*api.DocumentContent, 0, len(paths))
	for _, path := range paths {
		doc, err := LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func LoadFile(ctx context.Context, path string) (*api.DocumentContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	loader := documentloaders.NewPDF(f, fi.Size())
	pages, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	doc := &api.DocumentContent{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Pages: make([]api.DocumentPage, 0, len(pages)),
	}
	for i, page := range pages {
		doc.Pages = append(doc.Pages, api.DocumentPage{
			Index: i,
			Text:  page.PageContent,
		})
	}

	return doc, nil
}
