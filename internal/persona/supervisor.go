package persona

import (
	"context"
	"fmt"
	"strings"

	"roomcraft/internal/llmclient"
)

// Supervisor expands the user's short directive into a full design brief
// the image model can act on.
type Supervisor struct {
	llm llmclient.Client
}

func NewSupervisor(llm llmclient.Client) *Supervisor { return &Supervisor{llm: llm} }

func (s *Supervisor) Enhance(ctx context.Context, directive string) (string, error) {
	prompt := promptSpec{
		Purpose: "Rewrite a homeowner's redesign wish into a detailed brief for an image-generation model.",
		Input:   directive,
		Output:  "One paragraph of plain text. Name concrete materials, colors, furniture pieces, and lighting.",
		Rules: []string{
			"Keep the user's intent; add specifics, do not change direction.",
			"No lists, no headings, no meta commentary.",
		},
	}
	brief, err := s.llm.GenerateText(ctx, []llmclient.Part{llmclient.TextPart(prompt.render())})
	if err != nil {
		return "", err
	}
	brief = strings.TrimSpace(brief)
	if brief == "" {
		return "", fmt.Errorf("%w: supervisor: empty brief", llmclient.ErrMalformedResponse)
	}
	return brief, nil
}
