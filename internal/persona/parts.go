package persona

import (
	"context"
	"fmt"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/media"
	"roomcraft/internal/snapshot"
)

// imageParts builds the payload for an image-plus-prompt request. The
// image goes first so the model reads the instructions against it.
func imageParts(img snapshot.ImageRef, prompt string) ([]llmclient.Part, error) {
	data, err := media.DecodeBytes(img)
	if err != nil {
		return nil, fmt.Errorf("persona: decode image ref: %w", err)
	}
	return []llmclient.Part{
		llmclient.ImagePart(img.MIMEType, data),
		llmclient.TextPart(prompt),
	}, nil
}

func imageJSON(ctx context.Context, llm llmclient.Client, img snapshot.ImageRef, prompt string, schema *llmclient.Schema) ([]byte, error) {
	parts, err := imageParts(img, prompt)
	if err != nil {
		return nil, err
	}
	return llm.GenerateJSON(ctx, parts, schema)
}
