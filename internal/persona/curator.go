package persona

import (
	"context"
	"fmt"
	"strings"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/util/jsonutil"
)

// SuggestionCount is the fixed number of redesign directions offered
// after analysis.
const SuggestionCount = 3

// Curator turns the Analyst's findings into three concrete redesign
// directions. It sees only the style and opportunities text, never the
// full report or the photo.
type Curator struct {
	llm llmclient.Client
}

func NewCurator(llm llmclient.Client) *Curator { return &Curator{llm: llm} }

var curatorSchema = &llmclient.Schema{
	Type: "object",
	Properties: map[string]*llmclient.Schema{
		"suggestions": {
			Type:  "array",
			Items: &llmclient.Schema{Type: "string"},
		},
	},
	Required: []string{"suggestions"},
}

func (c *Curator) Suggest(ctx context.Context, style, opportunities string) ([]string, error) {
	prompt := promptSpec{
		Purpose:    "Propose redesign directions for a room based on a designer's analysis.",
		Background: "Current style:\n" + style + "\n\nImprovement opportunities:\n" + opportunities,
		Output:     fmt.Sprintf("JSON with suggestions: exactly %d short, distinct redesign directions.", SuggestionCount),
		Rules: []string{
			"Each suggestion is one sentence a non-designer can act on.",
			"Suggestions must differ in style, not just in wording.",
		},
	}
	raw, err := c.llm.GenerateJSON(ctx, []llmclient.Part{llmclient.TextPart(prompt.render())}, curatorSchema)
	if err != nil {
		return nil, err
	}
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: curator: %v", llmclient.ErrMalformedResponse, err)
	}
	kept := out.Suggestions[:0]
	for _, s := range out.Suggestions {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, strings.TrimSpace(s))
		}
	}
	if len(kept) < SuggestionCount {
		return nil, fmt.Errorf("%w: curator: got %d suggestions, want %d",
			llmclient.ErrMalformedResponse, len(kept), SuggestionCount)
	}
	return kept[:SuggestionCount], nil
}
