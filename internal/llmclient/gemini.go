package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	genai "google.golang.org/genai"
)

// GeminiConfig carries the model selectors and call policy.
type GeminiConfig struct {
	APIKey     string
	TextModel  string        // analysis, briefs, plans
	ImageModel string        // design generation
	Timeout    time.Duration // per attempt; zero means DefaultTimeout
	Retries    int           // extra attempts after the first failure
}

const (
	DefaultTimeout = 90 * time.Second
	DefaultRetries = 2
)

// Gemini is a thin wrapper around the official genai client. It only
// focuses on the API call itself; caching is applied via WithCache.
type Gemini struct {
	cli        *genai.Client
	textModel  string
	imageModel string
	timeout    time.Duration
	retries    int
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = DefaultRetries
	}
	return &Gemini{
		cli:        cli,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
	}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, parts []Part) (string, error) {
	resp, err := g.generate(ctx, g.textModel, parts, nil)
	if err != nil {
		return "", err
	}
	text, ok := firstText(resp)
	if !ok {
		return "", ErrMalformedResponse
	}
	return text, nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, parts []Part, schema *Schema) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if schema != nil {
		cfg.ResponseSchema = toGenaiSchema(schema)
	}
	resp, err := g.generate(ctx, g.textModel, parts, cfg)
	if err != nil {
		return nil, err
	}
	text, ok := firstText(resp)
	if !ok {
		return nil, ErrMalformedResponse
	}
	return json.RawMessage(text), nil
}

func (g *Gemini) GenerateImage(ctx context.Context, parts []Part) (*Blob, error) {
	cfg := &genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}}
	resp, err := g.generate(ctx, g.imageModel, parts, cfg)
	if err != nil {
		return nil, err
	}
	// First image-bearing part wins; a text-only response is a valid
	// "no image produced" outcome, not an error.
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return &Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}, nil
			}
		}
	}
	return nil, nil
}

func (g *Gemini) generate(ctx context.Context, model string, parts []Part, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{{Parts: toGenaiParts(parts)}}
	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrBackend, ctx.Err())
			case <-time.After(time.Duration(300*(1<<(attempt-1))) * time.Millisecond):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		resp, err := g.cli.Models.GenerateContent(callCtx, model, contents, cfg)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Printf("gemini %s attempt %d failed: %v", model, attempt+1, err)
	}
	return nil, fmt.Errorf("%w: %v", ErrBackend, lastErr)
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Inline != nil {
			out = append(out, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.Inline.MIMEType,
				Data:     p.Inline.Data,
			}})
		}
		if p.Text != "" {
			out = append(out, &genai.Part{Text: p.Text})
		}
	}
	return out
}

func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p != nil && p.Text != "" {
				return p.Text, true
			}
		}
	}
	return "", false
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenaiSchema(v)
		}
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}
