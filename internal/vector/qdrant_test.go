package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestDocumentPayload(t *testing.T) {
	values := qdrant.NewValueMap(map[string]any{
		"title":  "Estate Planning Basics",
		"text":   "chunk one",
		"source": "",
		"pages":  int64(12),
	})

	payload := documentPayload(values)

	if got := payload["title"]; got != "Estate Planning Basics" {
		t.Errorf("got title %q, expected %q", got, "Estate Planning Basics")
	}
	if got := payload["text"]; got != "chunk one" {
		t.Errorf("got text %q, expected %q", got, "chunk one")
	}

	// empty strings are legitimate field values
	if got, ok := payload["source"]; !ok || got != "" {
		t.Errorf("got source (%q, %v), expected empty string present", got, ok)
	}

	// non-string fields are skipped, not coerced
	if _, ok := payload["pages"]; ok {
		t.Error("expected non-string field to be dropped")
	}
}

func TestDocumentPayloadEmpty(t *testing.T) {
	if got := documentPayload(nil); len(got) != 0 {
		t.Errorf("got %d fields, expected 0", len(got))
	}
}
