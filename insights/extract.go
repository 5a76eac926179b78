package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument marks caller input the pipeline cannot act on.
var ErrInvalidArgument = errors.New("argumento inválido")

// ErrMalformedReply marks a generated reply that could not be read as the expected JSON.
var ErrMalformedReply = errors.New("malformed model reply")

// StripCodeFence removes markdown code fence markers and trims surrounding
// whitespace. Text without fences is only trimmed.
func StripCodeFence(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ExtractJSON decodes a generated reply into T after fence stripping. It
// fails closed: anything that is not a single JSON value is an error.
func ExtractJSON[T any](reply string) (T, error) {
	var out T
	clean := StripCodeFence(reply)
	if clean == "" {
		return out, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	dec := json.NewDecoder(strings.NewReader(clean))
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if dec.More() {
		return out, fmt.Errorf("%w: trailing content after JSON value", ErrMalformedReply)
	}
	return out, nil
}
