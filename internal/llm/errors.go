package llm

import "fmt"

// MismatchMessagePartTypeError reports an access to a message part
// payload through the wrong typed accessor.
type MismatchMessagePartTypeError struct {
	Wanted MessagePartType
	Real   MessagePartType
}

func (e MismatchMessagePartTypeError) Error() string {
	return fmt.Sprintf("message part is of type '%s', not '%s'", e.Real, e.Wanted)
}

// NilPayloadError reports a message part whose payload was never set.
type NilPayloadError struct {
	Type MessagePartType
}

func (e NilPayloadError) Error() string {
	return fmt.Sprintf("message part of type '%s' holds a nil payload", e.Type)
}
