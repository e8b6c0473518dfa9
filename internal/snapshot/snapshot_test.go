package snapshot

import "testing"

func TestClone_DeepCopies(t *testing.T) {
	idx := 1
	orig := ProjectSnapshot{
		Stage:           StageReviewing,
		GeneratedImages: []ImageRef{{MIMEType: "image/png", Data: "aaa"}, {MIMEType: "image/png", Data: "bbb"}},
		Suggestions:     []string{"s1", "s2", "s3"},
		Analysis: &Analysis{
			StyleDescription: "mid-century",
			Palette:          []PaletteEntry{{Name: "teak", Hex: "#a0522d"}},
			Objects:          []DetectedObject{{Name: "sofa", Description: "low-slung"}},
			Opportunities:    "more light",
		},
		SelectedImage: &idx,
		FinalPlan: &FinalPlan{
			Summary:      "redo the living room",
			Budget:       "$2000",
			ShoppingList: []ShoppingItem{{Item: "lamp", Description: "arc", Cost: "$120"}},
		},
	}

	c := orig.Clone()
	c.GeneratedImages[0].Data = "zzz"
	c.Suggestions[0] = "zzz"
	c.Analysis.Palette[0].Name = "zzz"
	c.Analysis.Objects[0].Name = "zzz"
	*c.SelectedImage = 0
	c.FinalPlan.ShoppingList[0].Item = "zzz"

	if orig.GeneratedImages[0].Data != "aaa" ||
		orig.Suggestions[0] != "s1" ||
		orig.Analysis.Palette[0].Name != "teak" ||
		orig.Analysis.Objects[0].Name != "sofa" ||
		*orig.SelectedImage != 1 ||
		orig.FinalPlan.ShoppingList[0].Item != "lamp" {
		t.Fatal("Clone shared memory with the original")
	}
}

func TestSelected(t *testing.T) {
	p := ProjectSnapshot{GeneratedImages: []ImageRef{{Data: "a"}, {Data: "b"}}}
	if _, ok := p.Selected(); ok {
		t.Fatal("no selection should report false")
	}
	i := 1
	p.SelectedImage = &i
	img, ok := p.Selected()
	if !ok || img.Data != "b" {
		t.Fatalf("selected = %+v ok=%v, want b", img, ok)
	}
	bad := 9
	p.SelectedImage = &bad
	if _, ok := p.Selected(); ok {
		t.Fatal("out-of-range selection should report false")
	}
}

func TestStageInteractive(t *testing.T) {
	interactive := []Stage{StageUpload, StageSuggestionsReady, StageReviewing, StageDone}
	busy := []Stage{StageAnalyzing, StageSupervising, StageDesigning, StageReworking, StageFinalizing}
	for _, s := range interactive {
		if !s.Interactive() {
			t.Fatalf("%s should be interactive", s)
		}
	}
	for _, s := range busy {
		if s.Interactive() {
			t.Fatalf("%s should not be interactive", s)
		}
	}
}
