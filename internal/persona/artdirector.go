package persona

import (
	"context"
	"fmt"
	"strings"

	"roomcraft/internal/llmclient"
)

// ArtDirector turns the user's dissatisfaction with a render into a
// diagnosis the next design round can correct for.
type ArtDirector struct {
	llm llmclient.Client
}

func NewArtDirector(llm llmclient.Client) *ArtDirector { return &ArtDirector{llm: llm} }

func (a *ArtDirector) Diagnose(ctx context.Context, brief, feedback string) (string, error) {
	prompt := promptSpec{
		Purpose:    "Diagnose why a generated interior render missed the mark and advise the next attempt.",
		Background: "The render was produced from this brief:\n" + brief,
		Input:      "The client's complaint:\n" + feedback,
		Output:     "A short diagnosis followed by concrete adjustments for the next brief, as plain text.",
		Rules: []string{
			"Address the complaint directly; do not defend the previous render.",
		},
	}
	diagnosis, err := a.llm.GenerateText(ctx, []llmclient.Part{llmclient.TextPart(prompt.render())})
	if err != nil {
		return "", err
	}
	diagnosis = strings.TrimSpace(diagnosis)
	if diagnosis == "" {
		return "", fmt.Errorf("%w: art director: empty diagnosis", llmclient.ErrMalformedResponse)
	}
	return diagnosis, nil
}
