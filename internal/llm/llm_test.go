package llm_test

import (
	"errors"
	"testing"

	"finqa/internal/llm"
)

func TestMessageText(t *testing.T) {
	m := llm.Message{
		Role: llm.MessageRoleUser,
		Parts: []llm.MessagePart{
			llm.NewTextPart("what does "),
			llm.NewBlobPart("image/jpeg", []byte{0xff, 0xd8}),
			llm.NewTextPart("a will do?"),
		},
	}

	// blob parts are excluded from the text rendering
	if got := m.Text(); got != "what does a will do?" {
		t.Errorf("got %q, expected %q", got, "what does a will do?")
	}
}

func TestMessagePartAccessors(t *testing.T) {
	text := llm.NewTextPart("hello")
	if got, err := text.Text(); err != nil || got != "hello" {
		t.Errorf("got (%q, %v), expected (\"hello\", nil)", got, err)
	}

	blob := llm.NewBlobPart("image/png", []byte{1, 2, 3})
	b, err := blob.Blob()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.MIMEType != "image/png" || len(b.Data) != 3 {
		t.Errorf("unexpected blob: %+v", b)
	}
}

func TestMessagePartTypeMismatch(t *testing.T) {
	text := llm.NewTextPart("hello")

	_, err := text.Blob()
	var mismatch llm.MismatchMessagePartTypeError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got error %T, expected MismatchMessagePartTypeError", err)
	}
	if mismatch.Wanted != llm.MessagePartTypeBlob || mismatch.Real != llm.MessagePartTypeText {
		t.Errorf("unexpected mismatch error: %+v", mismatch)
	}
}

func TestMessagePartNilPayload(t *testing.T) {
	var part llm.MessagePart
	part.Type = llm.MessagePartTypeText

	_, err := part.Text()
	var nilPayload llm.NilPayloadError
	if !errors.As(err, &nilPayload) {
		t.Fatalf("got error %T, expected NilPayloadError", err)
	}
}
