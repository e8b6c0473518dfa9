package persona

import (
	"context"
	"fmt"
	"strings"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/snapshot"
	"roomcraft/internal/util/jsonutil"
)

// ProjectManager finalizes a chosen design in two strictly sequential
// calls: first a textual description of the render, then a structured
// plan derived from that description alone.
type ProjectManager struct {
	llm llmclient.Client
}

func NewProjectManager(llm llmclient.Client) *ProjectManager { return &ProjectManager{llm: llm} }

func (p *ProjectManager) Describe(ctx context.Context, img snapshot.ImageRef) (string, error) {
	prompt := promptSpec{
		Purpose: "Describe the attached interior render for a contractor.",
		Output:  "Plain text naming every visible furniture piece, material, color, and lighting element.",
	}
	parts, err := imageParts(img, prompt.render())
	if err != nil {
		return "", err
	}
	desc, err := p.llm.GenerateText(ctx, parts)
	if err != nil {
		return "", err
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", fmt.Errorf("%w: project manager: empty description", llmclient.ErrMalformedResponse)
	}
	return desc, nil
}

var planSchema = &llmclient.Schema{
	Type: "object",
	Properties: map[string]*llmclient.Schema{
		"summary": {Type: "string", Description: "What the redesign achieves, 2-4 sentences."},
		"budget":  {Type: "string", Description: "Estimated total cost range."},
		"shopping_list": {Type: "array", Items: &llmclient.Schema{
			Type: "object",
			Properties: map[string]*llmclient.Schema{
				"item":        {Type: "string"},
				"description": {Type: "string"},
				"cost":        {Type: "string"},
			},
			Required: []string{"item", "description", "cost"},
		}},
	},
	Required: []string{"summary", "budget", "shopping_list"},
}

// Plan works from the description only; the render itself is never sent.
func (p *ProjectManager) Plan(ctx context.Context, description string) (*snapshot.FinalPlan, error) {
	prompt := promptSpec{
		Purpose: "Turn a room-design description into an implementation plan for the homeowner.",
		Input:   description,
		Output:  "JSON with summary, budget, and shopping_list (item, description, cost per entry).",
		Rules: []string{
			"Every shopping-list entry must correspond to something in the description.",
			"Costs are rough retail estimates with a currency symbol.",
		},
	}
	raw, err := p.llm.GenerateJSON(ctx, []llmclient.Part{llmclient.TextPart(prompt.render())}, planSchema)
	if err != nil {
		return nil, err
	}
	var out snapshot.FinalPlan
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: project manager: %v", llmclient.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.Summary) == "" ||
		strings.TrimSpace(out.Budget) == "" ||
		len(out.ShoppingList) == 0 {
		return nil, fmt.Errorf("%w: project manager: missing required fields", llmclient.ErrMalformedResponse)
	}
	return &out, nil
}
