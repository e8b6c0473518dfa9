package persona

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/snapshot"
)

// ErrNoImages is returned when every generation request succeeds but none
// of them carries image content. Distinct from a transport failure.
var ErrNoImages = errors.New("no images produced")

// VariantCount is the number of independent redesign renders per round.
const VariantCount = 3

// StructuralPreservationDirective is appended to every generation brief.
// The model must repaint the room, not rebuild it.
const StructuralPreservationDirective = "Preserve the room's structure exactly: keep all walls, windows, " +
	"doors, ceiling and floor positions, and the camera perspective unchanged. " +
	"Only change furniture, decor, colors, materials, and lighting."

// Designer renders redesign variants of the source photo against an
// enhanced brief.
type Designer struct {
	llm llmclient.Client
}

func NewDesigner(llm llmclient.Client) *Designer { return &Designer{llm: llm} }

// Generate issues VariantCount independent requests concurrently and
// waits for all of them. Any transport failure fails the whole round and
// discards partial results. Requests that succeed without image content
// leave their slot empty; an all-empty round is ErrNoImages.
func (d *Designer) Generate(ctx context.Context, source snapshot.ImageRef, brief string) ([]snapshot.ImageRef, error) {
	parts, err := imageParts(source, brief+"\n\n"+StructuralPreservationDirective)
	if err != nil {
		return nil, err
	}

	blobs := make([]*llmclient.Blob, VariantCount)
	errs := make([]error, VariantCount)
	var wg sync.WaitGroup
	for i := 0; i < VariantCount; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			blobs[slot], errs[slot] = d.llm.GenerateImage(ctx, parts)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	var out []snapshot.ImageRef
	for _, b := range blobs {
		if b == nil || len(b.Data) == 0 {
			continue
		}
		out = append(out, snapshot.ImageRef{
			MIMEType: b.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(b.Data),
		})
	}
	if len(out) == 0 {
		return nil, ErrNoImages
	}
	return out, nil
}
