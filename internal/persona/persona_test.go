package persona

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"roomcraft/internal/llmclient"
	"roomcraft/internal/snapshot"
)

// fakeLLM scripts the client's responses per call kind.
type fakeLLM struct {
	mu         sync.Mutex
	text       string
	textErr    error
	json       string
	jsonErr    error
	images     []*llmclient.Blob // popped per GenerateImage call
	imageErr   error
	imageCalls int
	lastParts  []llmclient.Part
}

func (f *fakeLLM) GenerateText(ctx context.Context, parts []llmclient.Part) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParts = parts
	return f.text, f.textErr
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, parts []llmclient.Part, schema *llmclient.Schema) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParts = parts
	return json.RawMessage(f.json), f.jsonErr
}

func (f *fakeLLM) GenerateImage(ctx context.Context, parts []llmclient.Part) (*llmclient.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	f.lastParts = parts
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	if len(f.images) == 0 {
		return nil, nil
	}
	b := f.images[0]
	f.images = f.images[1:]
	return b, nil
}

func testImage() snapshot.ImageRef {
	return snapshot.ImageRef{
		MIMEType: "image/png",
		Data:     base64.StdEncoding.EncodeToString([]byte("fake-pixels")),
	}
}

func TestAnalyst_Analyze(t *testing.T) {
	llm := &fakeLLM{json: `{
		"style_description": "Mid-century modern with warm wood tones.",
		"palette": [{"name": "walnut", "hex": "#5d4027"}],
		"objects": [{"name": "sofa", "description": "low-slung three seater"}],
		"opportunities": "The corner by the window is unused."
	}`}
	got, err := NewAnalyst(llm).Analyze(context.Background(), testImage())
	if err != nil {
		t.Fatal(err)
	}
	if got.StyleDescription == "" || len(got.Palette) != 1 || len(got.Objects) != 1 {
		t.Fatalf("analysis = %+v", got)
	}
	if llm.lastParts[0].Inline == nil {
		t.Fatal("image part was not sent first")
	}
}

func TestAnalyst_MissingFieldsFailStep(t *testing.T) {
	llm := &fakeLLM{json: `{"style_description": "modern", "palette": [], "objects": [], "opportunities": ""}`}
	if _, err := NewAnalyst(llm).Analyze(context.Background(), testImage()); !errors.Is(err, llmclient.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAnalyst_StripsFence(t *testing.T) {
	llm := &fakeLLM{json: "```json\n{\"style_description\":\"boho\",\"palette\":[{\"name\":\"terracotta\",\"hex\":\"#cc6644\"}],\"objects\":[{\"name\":\"rug\",\"description\":\"woven\"}],\"opportunities\":\"more light\"}\n```"}
	got, err := NewAnalyst(llm).Analyze(context.Background(), testImage())
	if err != nil {
		t.Fatal(err)
	}
	if got.StyleDescription != "boho" {
		t.Fatalf("style = %q", got.StyleDescription)
	}
}

func TestCurator_ExactlyThree(t *testing.T) {
	llm := &fakeLLM{json: `{"suggestions": ["Go coastal", "Go industrial", "Go japandi", "Go maximalist"]}`}
	got, err := NewCurator(llm).Suggest(context.Background(), "modern", "bare walls")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != SuggestionCount {
		t.Fatalf("len = %d, want %d", len(got), SuggestionCount)
	}
}

func TestCurator_TooFewFails(t *testing.T) {
	llm := &fakeLLM{json: `{"suggestions": ["Go coastal", "  "]}`}
	if _, err := NewCurator(llm).Suggest(context.Background(), "modern", "bare walls"); !errors.Is(err, llmclient.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestSupervisor_EmptyBriefFails(t *testing.T) {
	llm := &fakeLLM{text: "  \n "}
	if _, err := NewSupervisor(llm).Enhance(context.Background(), "make it cozy"); !errors.Is(err, llmclient.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestDesigner_ThreeCallsAndDirective(t *testing.T) {
	llm := &fakeLLM{images: []*llmclient.Blob{
		{MIMEType: "image/png", Data: []byte{1}},
		{MIMEType: "image/png", Data: []byte{2}},
		{MIMEType: "image/png", Data: []byte{3}},
	}}
	got, err := NewDesigner(llm).Generate(context.Background(), testImage(), "a cozy reading nook")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != VariantCount {
		t.Fatalf("len = %d, want %d", len(got), VariantCount)
	}
	if llm.imageCalls != VariantCount {
		t.Fatalf("imageCalls = %d, want %d", llm.imageCalls, VariantCount)
	}
	var promptText string
	for _, p := range llm.lastParts {
		promptText += p.Text
	}
	if !strings.Contains(promptText, StructuralPreservationDirective) {
		t.Fatal("structural-preservation directive was not appended to the brief")
	}
}

func TestDesigner_AllEmptyIsNoImages(t *testing.T) {
	llm := &fakeLLM{} // every call succeeds with nil blob
	_, err := NewDesigner(llm).Generate(context.Background(), testImage(), "brief")
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("err = %v, want ErrNoImages", err)
	}
	if llm.imageCalls != VariantCount {
		t.Fatalf("imageCalls = %d, want %d", llm.imageCalls, VariantCount)
	}
}

func TestDesigner_TransportErrorDiscardsPartials(t *testing.T) {
	llm := &fakeLLM{imageErr: llmclient.ErrBackend}
	got, err := NewDesigner(llm).Generate(context.Background(), testImage(), "brief")
	if !errors.Is(err, llmclient.ErrBackend) {
		t.Fatalf("err = %v, want ErrBackend", err)
	}
	if got != nil {
		t.Fatalf("partials leaked: %v", got)
	}
}

func TestDesigner_PartialRoundIsAccepted(t *testing.T) {
	llm := &fakeLLM{images: []*llmclient.Blob{{MIMEType: "image/png", Data: []byte{9}}}}
	got, err := NewDesigner(llm).Generate(context.Background(), testImage(), "brief")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestProjectManager_Plan(t *testing.T) {
	llm := &fakeLLM{json: `{
		"summary": "A brighter, plant-filled living room.",
		"budget": "$1,200 - $1,800",
		"shopping_list": [{"item": "floor lamp", "description": "arched brass", "cost": "$180"}]
	}`}
	got, err := NewProjectManager(llm).Plan(context.Background(), "a bright room with an arched brass floor lamp")
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary == "" || got.Budget == "" || len(got.ShoppingList) != 1 {
		t.Fatalf("plan = %+v", got)
	}
}

func TestProjectManager_EmptyShoppingListFails(t *testing.T) {
	llm := &fakeLLM{json: `{"summary": "s", "budget": "b", "shopping_list": []}`}
	if _, err := NewProjectManager(llm).Plan(context.Background(), "desc"); !errors.Is(err, llmclient.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}
