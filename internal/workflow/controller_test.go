package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roomcraft/internal/persona"
	"roomcraft/internal/snapshot"
)

type fakeAnalyst struct {
	analysis *snapshot.Analysis
	err      error
}

func (f *fakeAnalyst) Analyze(ctx context.Context, img snapshot.ImageRef) (*snapshot.Analysis, error) {
	return f.analysis, f.err
}

type fakeCurator struct {
	suggestions []string
	err         error
}

func (f *fakeCurator) Suggest(ctx context.Context, style, opportunities string) ([]string, error) {
	return f.suggestions, f.err
}

type fakeSupervisor struct {
	brief string
	err   error
	block chan struct{} // when set, Enhance waits until closed
}

func (f *fakeSupervisor) Enhance(ctx context.Context, directive string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return f.brief, f.err
}

type fakeDesigner struct {
	images []snapshot.ImageRef
	err    error
}

func (f *fakeDesigner) Generate(ctx context.Context, source snapshot.ImageRef, brief string) ([]snapshot.ImageRef, error) {
	return f.images, f.err
}

type fakeArtDirector struct {
	diagnosis string
	err       error
}

func (f *fakeArtDirector) Diagnose(ctx context.Context, brief, feedback string) (string, error) {
	return f.diagnosis, f.err
}

type fakePM struct {
	description string
	plan        *snapshot.FinalPlan
	descErr     error
	planErr     error
}

func (f *fakePM) Describe(ctx context.Context, img snapshot.ImageRef) (string, error) {
	return f.description, f.descErr
}

func (f *fakePM) Plan(ctx context.Context, description string) (*snapshot.FinalPlan, error) {
	return f.plan, f.planErr
}

func happyPersonas() Personas {
	return Personas{
		Analyst: &fakeAnalyst{analysis: &snapshot.Analysis{
			StyleDescription: "scandinavian",
			Palette:          []snapshot.PaletteEntry{{Name: "birch", Hex: "#e8dcc8"}},
			Objects:          []snapshot.DetectedObject{{Name: "sofa", Description: "light gray"}},
			Opportunities:    "empty walls",
		}},
		Curator:    &fakeCurator{suggestions: []string{"go japandi", "go coastal", "go industrial"}},
		Supervisor: &fakeSupervisor{brief: "a detailed japandi brief"},
		Designer: &fakeDesigner{images: []snapshot.ImageRef{
			{MIMEType: "image/png", Data: "aW1nMQ=="},
			{MIMEType: "image/png", Data: "aW1nMg=="},
			{MIMEType: "image/png", Data: "aW1nMw=="},
		}},
		ArtDirector: &fakeArtDirector{diagnosis: "too dark, add warm lighting"},
		ProjectManager: &fakePM{
			description: "a japandi living room with an oak bench",
			plan: &snapshot.FinalPlan{
				Summary:      "Calm japandi refresh.",
				Budget:       "$900 - $1,400",
				ShoppingList: []snapshot.ShoppingItem{{Item: "oak bench", Description: "low slatted", Cost: "$240"}},
			},
		},
	}
}

func roomPhoto() snapshot.ImageRef {
	return snapshot.ImageRef{MIMEType: "image/jpeg", Data: "cm9vbQ=="}
}

func TestController_FullScenario(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()

	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageSuggestionsReady {
		t.Fatalf("stage = %s", cur.Stage)
	}
	if cur.Analysis == nil || len(cur.Suggestions) != 3 {
		t.Fatalf("analysis/suggestions missing: %+v", cur)
	}

	if err := c.RequestDesign(ctx, cur.Suggestions[1]); err != nil {
		t.Fatal(err)
	}
	cur = c.Current()
	if cur.Stage != snapshot.StageReviewing {
		t.Fatalf("stage = %s", cur.Stage)
	}
	if len(cur.GeneratedImages) != 3 || cur.EnhancedPrompt == "" || cur.SelectedImage != nil {
		t.Fatalf("round state wrong: %+v", cur)
	}

	if err := c.SelectImage(1); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	cur = c.Current()
	if cur.Stage != snapshot.StageDone {
		t.Fatalf("stage = %s", cur.Stage)
	}
	if cur.FinalPlan == nil || cur.FinalPlan.Summary == "" || cur.FinalPlan.Budget == "" || len(cur.FinalPlan.ShoppingList) < 1 {
		t.Fatalf("final plan wrong: %+v", cur.FinalPlan)
	}
}

func TestController_AnalysisFailureRetainsImage(t *testing.T) {
	p := happyPersonas()
	p.Analyst = &fakeAnalyst{err: errors.New("backend down")}
	c := NewController(p, nil)

	err := c.UploadImage(context.Background(), roomPhoto())
	if err == nil {
		t.Fatal("expected the step to fail")
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageUpload {
		t.Fatalf("stage = %s, want upload", cur.Stage)
	}
	if cur.SourceImage.IsZero() {
		t.Fatal("uploaded image was not retained")
	}
	if cur.Analysis != nil || len(cur.Suggestions) != 0 {
		t.Fatal("partial results merged into the retained snapshot")
	}
	if c.CanUndo() {
		t.Fatal("failed step must not create an undo entry")
	}
}

func TestController_NoImagesRegressesToSuggestions(t *testing.T) {
	p := happyPersonas()
	p.Designer = &fakeDesigner{err: persona.ErrNoImages}
	c := NewController(p, nil)
	ctx := context.Background()

	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	err := c.RequestDesign(ctx, "go coastal")
	if !errors.Is(err, persona.ErrNoImages) {
		t.Fatalf("err = %v, want ErrNoImages", err)
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageSuggestionsReady {
		t.Fatalf("stage = %s, want suggestions_ready", cur.Stage)
	}
	if len(cur.GeneratedImages) != 0 {
		t.Fatalf("partial images leaked: %d", len(cur.GeneratedImages))
	}
}

func TestController_ReworkKeepsDiagnosisClearsFeedback(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDesign(ctx, "go japandi"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetReworkFeedback("too dark"); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestRework(ctx, "too dark"); err != nil {
		t.Fatal(err)
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageSuggestionsReady {
		t.Fatalf("stage = %s", cur.Stage)
	}
	if cur.ReworkDiagnosis == "" || cur.ReworkFeedback != "" {
		t.Fatalf("diagnosis/feedback wrong: %+v", cur)
	}
}

func TestController_TriggersRejectedByStage(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()

	if err := c.RequestDesign(ctx, "anything"); !errors.Is(err, ErrNotThisStage) {
		t.Fatalf("design from upload: %v", err)
	}
	if err := c.RequestRework(ctx, "meh"); !errors.Is(err, ErrNotThisStage) {
		t.Fatalf("rework from upload: %v", err)
	}
	if err := c.Finalize(ctx); !errors.Is(err, ErrNotThisStage) {
		t.Fatalf("finalize from upload: %v", err)
	}
	if err := c.UploadImage(ctx, snapshot.ImageRef{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty image: %v", err)
	}
}

func TestController_FinalizeRequiresSelection(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDesign(ctx, "go coastal"); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if got := c.Current().Stage; got != snapshot.StageReviewing {
		t.Fatalf("stage = %s, want reviewing", got)
	}
	if err := c.SelectImage(5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out-of-range select: %v", err)
	}
}

func TestController_BusyGating(t *testing.T) {
	p := happyPersonas()
	block := make(chan struct{})
	p.Supervisor = &fakeSupervisor{brief: "brief", block: block}
	c := NewController(p, nil)
	ctx := context.Background()

	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.RequestDesign(ctx, "go coastal"); err != nil {
			t.Errorf("design: %v", err)
		}
	}()

	// Wait until the step is in flight.
	deadline := time.After(2 * time.Second)
	for !c.Busy() {
		select {
		case <-deadline:
			t.Fatal("step never started")
		case <-time.After(time.Millisecond):
		}
	}

	if got := c.Current().Stage; got != snapshot.StageSupervising {
		t.Fatalf("busy stage = %s, want supervising", got)
	}
	if err := c.RequestDesign(ctx, "another"); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent trigger: %v", err)
	}
	if err := c.SetPrompt("typing"); !errors.Is(err, ErrBusy) {
		t.Fatalf("overwrite while busy: %v", err)
	}
	if err := c.StartOver(); !errors.Is(err, ErrBusy) {
		t.Fatalf("start over while busy: %v", err)
	}
	if c.Undo() {
		t.Fatal("undo while busy must be a no-op")
	}

	close(block)
	wg.Wait()
	if got := c.Current().Stage; got != snapshot.StageReviewing {
		t.Fatalf("stage after unblock = %s", got)
	}
}

func TestController_UndoRedoAcrossSteps(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDesign(ctx, "go japandi"); err != nil {
		t.Fatal(err)
	}

	if !c.Undo() {
		t.Fatal("undo failed")
	}
	if got := c.Current().Stage; got != snapshot.StageSuggestionsReady {
		t.Fatalf("stage after undo = %s", got)
	}
	if !c.Redo() {
		t.Fatal("redo failed")
	}
	if got := c.Current().Stage; got != snapshot.StageReviewing {
		t.Fatalf("stage after redo = %s", got)
	}
}

func TestController_SelectDoesNotBranchHistory(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDesign(ctx, "go japandi"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectImage(0); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectImage(2); err != nil {
		t.Fatal(err)
	}
	// Two selections, still a single undo step back to suggestions.
	if !c.Undo() {
		t.Fatal("undo failed")
	}
	if got := c.Current().Stage; got != snapshot.StageSuggestionsReady {
		t.Fatalf("stage after undo = %s", got)
	}
	if !c.Redo() {
		t.Fatal("redo failed")
	}
	cur := c.Current()
	if cur.SelectedImage == nil || *cur.SelectedImage != 2 {
		t.Fatalf("selected = %v, want 2", cur.SelectedImage)
	}
}

func TestController_StartOverResets(t *testing.T) {
	c := NewController(happyPersonas(), nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.StartOver(); err != nil {
		t.Fatal(err)
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageUpload || !cur.SourceImage.IsZero() {
		t.Fatalf("reset state wrong: %+v", cur)
	}
	if c.CanUndo() || c.CanRedo() {
		t.Fatal("reset must clear history")
	}
}

func TestController_DesignFromDoneRegressesInPlaceOnFailure(t *testing.T) {
	p := happyPersonas()
	c := NewController(p, nil)
	ctx := context.Background()
	if err := c.UploadImage(ctx, roomPhoto()); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDesign(ctx, "go japandi"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectImage(0); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(ctx); err != nil {
		t.Fatal(err)
	}

	p.Designer.(*fakeDesigner).err = errors.New("backend down")
	if err := c.RequestDesign(ctx, "one more round"); err == nil {
		t.Fatal("expected the round to fail")
	}
	cur := c.Current()
	if cur.Stage != snapshot.StageSuggestionsReady {
		t.Fatalf("stage = %s, want suggestions_ready", cur.Stage)
	}
	// Regression replaced the entry in place, no new history step.
	if c.CanRedo() {
		t.Fatal("failure must not branch history")
	}
	if cur.FinalPlan == nil {
		t.Fatal("plan from the finished round must survive the regression")
	}
}
