package persona

import (
	"context"
	"fmt"
	"strings"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/snapshot"
	"roomcraft/internal/util/jsonutil"
)

// Analyst inspects the uploaded room photo and produces the structured
// report every later step builds on.
type Analyst struct {
	llm llmclient.Client
}

func NewAnalyst(llm llmclient.Client) *Analyst { return &Analyst{llm: llm} }

var analystSchema = &llmclient.Schema{
	Type: "object",
	Properties: map[string]*llmclient.Schema{
		"style_description": {Type: "string", Description: "Current interior style of the room in 2-3 sentences."},
		"palette": {Type: "array", Items: &llmclient.Schema{
			Type: "object",
			Properties: map[string]*llmclient.Schema{
				"name": {Type: "string"},
				"hex":  {Type: "string", Description: "CSS hex color like #aabbcc."},
			},
			Required: []string{"name", "hex"},
		}},
		"objects": {Type: "array", Items: &llmclient.Schema{
			Type: "object",
			Properties: map[string]*llmclient.Schema{
				"name":        {Type: "string"},
				"description": {Type: "string"},
			},
			Required: []string{"name", "description"},
		}},
		"opportunities": {Type: "string", Description: "What could be improved about the room."},
	},
	Required: []string{"style_description", "palette", "objects", "opportunities"},
}

func (a *Analyst) Analyze(ctx context.Context, img snapshot.ImageRef) (*snapshot.Analysis, error) {
	prompt := promptSpec{
		Purpose:    "Analyze the attached room photo as an interior designer.",
		Output:     "JSON with style_description, palette (name + hex per color), objects (name + description per visible furniture or decor piece), and opportunities.",
		Constraints: []string{
			"Describe only what is visible in the photo.",
			"List dominant colors only, at most 6 palette entries.",
		},
	}
	raw, err := imageJSON(ctx, a.llm, img, prompt.render(), analystSchema)
	if err != nil {
		return nil, err
	}
	var out snapshot.Analysis
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: analyst: %v", llmclient.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.StyleDescription) == "" ||
		strings.TrimSpace(out.Opportunities) == "" ||
		len(out.Palette) == 0 || len(out.Objects) == 0 {
		return nil, fmt.Errorf("%w: analyst: missing required fields", llmclient.ErrMalformedResponse)
	}
	return &out, nil
}
