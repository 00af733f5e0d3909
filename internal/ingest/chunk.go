package ingest

import (
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// chunkSeparators are tried in order, falling back to finer splits when
// a chunk still exceeds the size limit.
var chunkSeparators = []string{"\n\n", "\n", ".", " ", ""}

type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}

	s := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
	)
	return &Chunker{
		splitter: s,
	}
}

func (c *Chunker) Split(text string) ([]string, error) {
	return c.splitter.SplitText(text)
}
