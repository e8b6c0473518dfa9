// Package snapshot defines the immutable project state value and the
// undo/redo history log over it. Everything the presentation layer shows
// derives from the current snapshot; workflow steps produce new snapshots
// by copy-with-changes and never mutate a stored one.
package snapshot

import "strings"

// Stage is the current position of the design workflow.
type Stage string

const (
	StageUpload           Stage = "upload"
	StageAnalyzing        Stage = "analyzing"
	StageSuggestionsReady Stage = "suggestions_ready"
	StageSupervising      Stage = "supervising"
	StageDesigning        Stage = "designing"
	StageReviewing        Stage = "reviewing"
	StageReworking        Stage = "reworking"
	StageFinalizing       Stage = "finalizing"
	StageDone             Stage = "done"
)

// Interactive reports whether the stage accepts user triggers. The busy
// stages (analyzing, supervising, designing, reworking, finalizing) exist
// only while an external call is outstanding.
func (s Stage) Interactive() bool {
	switch s {
	case StageUpload, StageSuggestionsReady, StageReviewing, StageDone:
		return true
	}
	return false
}

// ImageRef is an inline-encoded image payload. Data is base64 without the
// data-URL prefix; MIMEType is the content type sent to the backend.
type ImageRef struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// IsZero reports whether the ref carries no payload.
func (r ImageRef) IsZero() bool {
	return strings.TrimSpace(r.Data) == ""
}

// PaletteEntry is one named color of the analysis palette.
type PaletteEntry struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// DetectedObject is one piece of furniture or decor the Analyst found.
type DetectedObject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Analysis is the Analyst's structured room report. Set once per project.
type Analysis struct {
	StyleDescription string           `json:"style_description"`
	Palette          []PaletteEntry   `json:"palette"`
	Objects          []DetectedObject `json:"objects"`
	Opportunities    string           `json:"opportunities"`
}

// ShoppingItem is one line of the final plan's shopping list.
type ShoppingItem struct {
	Item        string `json:"item"`
	Description string `json:"description"`
	Cost        string `json:"cost"`
}

// FinalPlan is the Project Manager's structured implementation plan.
type FinalPlan struct {
	Summary      string         `json:"summary"`
	Budget       string         `json:"budget"`
	ShoppingList []ShoppingItem `json:"shopping_list"`
}

// ProjectSnapshot is one immutable value of the full project state.
// Derive a new one with Clone plus field assignment.
type ProjectSnapshot struct {
	Stage           Stage      `json:"stage"`
	Prompt          string     `json:"prompt,omitempty"`
	SourceImage     ImageRef   `json:"source_image,omitempty"`
	GeneratedImages []ImageRef `json:"generated_images,omitempty"`
	Analysis        *Analysis  `json:"analysis,omitempty"`
	Suggestions     []string   `json:"suggestions,omitempty"`
	EnhancedPrompt  string     `json:"enhanced_prompt,omitempty"`
	SelectedImage   *int       `json:"selected_image,omitempty"`
	ReworkFeedback  string     `json:"rework_feedback,omitempty"`
	ReworkDiagnosis string     `json:"rework_diagnosis,omitempty"`
	FinalPlan       *FinalPlan `json:"final_plan,omitempty"`
}

// Initial returns the snapshot a fresh project starts from.
func Initial() ProjectSnapshot {
	return ProjectSnapshot{Stage: StageUpload}
}

// Clone returns a structurally independent copy: shared slices and
// pointers are duplicated so the original can never be mutated through
// the copy.
func (p ProjectSnapshot) Clone() ProjectSnapshot {
	out := p
	if p.GeneratedImages != nil {
		out.GeneratedImages = make([]ImageRef, len(p.GeneratedImages))
		copy(out.GeneratedImages, p.GeneratedImages)
	}
	if p.Suggestions != nil {
		out.Suggestions = make([]string, len(p.Suggestions))
		copy(out.Suggestions, p.Suggestions)
	}
	if p.Analysis != nil {
		a := *p.Analysis
		if p.Analysis.Palette != nil {
			a.Palette = make([]PaletteEntry, len(p.Analysis.Palette))
			copy(a.Palette, p.Analysis.Palette)
		}
		if p.Analysis.Objects != nil {
			a.Objects = make([]DetectedObject, len(p.Analysis.Objects))
			copy(a.Objects, p.Analysis.Objects)
		}
		out.Analysis = &a
	}
	if p.SelectedImage != nil {
		idx := *p.SelectedImage
		out.SelectedImage = &idx
	}
	if p.FinalPlan != nil {
		fp := *p.FinalPlan
		if p.FinalPlan.ShoppingList != nil {
			fp.ShoppingList = make([]ShoppingItem, len(p.FinalPlan.ShoppingList))
			copy(fp.ShoppingList, p.FinalPlan.ShoppingList)
		}
		out.FinalPlan = &fp
	}
	return out
}

// Selected returns the image the user picked for finalization, if any.
func (p ProjectSnapshot) Selected() (ImageRef, bool) {
	if p.SelectedImage == nil {
		return ImageRef{}, false
	}
	i := *p.SelectedImage
	if i < 0 || i >= len(p.GeneratedImages) {
		return ImageRef{}, false
	}
	return p.GeneratedImages[i], true
}
