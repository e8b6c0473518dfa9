// Package llmclient wraps the generative backend behind a small interface
// so workflow steps can be tested against a fake. Cross-cutting concerns
// (caching) are applied via middleware wrappers.
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrBackend covers transport, model, and timeout failures of the
	// remote service.
	ErrBackend = errors.New("llmclient: backend request failed")
	// ErrMalformedResponse covers responses that parse but miss required
	// keys, or do not parse at all.
	ErrMalformedResponse = errors.New("llmclient: malformed structured response")
)

// Blob is inline binary content with its MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Part is one element of a request payload: text, an inline image, or
// both are sent as an ordered list of parts.
type Part struct {
	Text   string
	Inline *Blob
}

// TextPart builds a text-only part.
func TextPart(s string) Part { return Part{Text: s} }

// ImagePart builds an inline-image part.
func ImagePart(mimeType string, data []byte) Part {
	return Part{Inline: &Blob{MIMEType: mimeType, Data: data}}
}

// Schema describes the expected shape of a structured response. It is a
// deliberately small subset of JSON Schema, converted to the backend's
// native schema type by the client implementation.
type Schema struct {
	Type        string             // "object", "array", "string", "number", "integer", "boolean"
	Description string
	Properties  map[string]*Schema // object
	Items       *Schema            // array
	Required    []string           // object
}

// Client is the capability consumed by the personas.
type Client interface {
	// GenerateText sends parts and returns the first text of the response.
	GenerateText(ctx context.Context, parts []Part) (string, error)
	// GenerateJSON asks for application/json constrained by schema and
	// returns the raw payload. Callers strip code fences and validate
	// required fields on decode.
	GenerateJSON(ctx context.Context, parts []Part, schema *Schema) (json.RawMessage, error)
	// GenerateImage sends parts to the image model and returns the first
	// image-bearing part of the response. A nil Blob with nil error means
	// the call succeeded but produced no image content.
	GenerateImage(ctx context.Context, parts []Part) (*Blob, error)
}
