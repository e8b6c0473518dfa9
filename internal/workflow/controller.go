// Package workflow drives the six-persona design loop as a state machine
// over the snapshot history. One Controller serves one browser session;
// while an external call is outstanding the controller is busy and all
// mutating triggers are rejected.
package workflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"roomcraft/internal/snapshot"
)

var (
	ErrBusy         = errors.New("workflow: a step is already running")
	ErrInvalidInput = errors.New("workflow: invalid input")
	ErrNotThisStage = errors.New("workflow: trigger not allowed in the current stage")
)

// The persona capabilities the controller consumes. Declared here so
// tests can fake a single role without touching the llm layer.
type (
	Analyst interface {
		Analyze(ctx context.Context, img snapshot.ImageRef) (*snapshot.Analysis, error)
	}
	Curator interface {
		Suggest(ctx context.Context, style, opportunities string) ([]string, error)
	}
	Supervisor interface {
		Enhance(ctx context.Context, directive string) (string, error)
	}
	Designer interface {
		Generate(ctx context.Context, source snapshot.ImageRef, brief string) ([]snapshot.ImageRef, error)
	}
	ArtDirector interface {
		Diagnose(ctx context.Context, brief, feedback string) (string, error)
	}
	ProjectManager interface {
		Describe(ctx context.Context, img snapshot.ImageRef) (string, error)
		Plan(ctx context.Context, description string) (*snapshot.FinalPlan, error)
	}
)

// Personas bundles the six roles for injection.
type Personas struct {
	Analyst        Analyst
	Curator        Curator
	Supervisor     Supervisor
	Designer       Designer
	ArtDirector    ArtDirector
	ProjectManager ProjectManager
}

// Event is pushed to the notify callback whenever the visible stage or
// busy flag changes.
type Event struct {
	Stage snapshot.Stage `json:"stage"`
	Busy  bool           `json:"busy"`
}

// Controller owns the history of one project session.
type Controller struct {
	mu       sync.Mutex
	hist     *snapshot.History
	personas Personas
	busy     bool
	override snapshot.Stage // transient busy stage, valid while busy
	notify   func(Event)
}

func NewController(p Personas, notify func(Event)) *Controller {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Controller{
		hist:     snapshot.NewHistory(snapshot.Initial()),
		personas: p,
		notify:   notify,
	}
}

// Current returns the visible snapshot: the one at the history cursor,
// with the transient busy stage overlaid while a step runs.
func (c *Controller) Current() snapshot.ProjectSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.hist.Current()
	if c.busy {
		cur.Stage = c.override
	}
	return cur
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hist.CanUndo()
}

func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hist.CanRedo()
}

// begin validates the trigger against the allowed stages, flips the busy
// flag, and returns the snapshot the step works from.
func (c *Controller) begin(busyStage snapshot.Stage, allowed ...snapshot.Stage) (snapshot.ProjectSnapshot, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return snapshot.ProjectSnapshot{}, ErrBusy
	}
	cur := c.hist.Current()
	ok := false
	for _, s := range allowed {
		if cur.Stage == s {
			ok = true
			break
		}
	}
	if !ok {
		c.mu.Unlock()
		return snapshot.ProjectSnapshot{}, ErrNotThisStage
	}
	c.busy = true
	c.override = busyStage
	c.mu.Unlock()
	c.notify(Event{Stage: busyStage, Busy: true})
	return cur, nil
}

// setBusyStage moves the transient stage mid-step (supervising →
// designing).
func (c *Controller) setBusyStage(s snapshot.Stage) {
	c.mu.Lock()
	c.override = s
	c.mu.Unlock()
	c.notify(Event{Stage: s, Busy: true})
}

// end clears the busy flag and applies the step's outcome under the lock.
func (c *Controller) end(apply func()) {
	c.mu.Lock()
	c.busy = false
	c.override = ""
	if apply != nil {
		apply()
	}
	stage := c.hist.Current().Stage
	c.mu.Unlock()
	c.notify(Event{Stage: stage, Busy: false})
}

// UploadImage runs the analysis round: Analyst then Curator, strictly in
// that order. On failure the stage stays at upload with the image
// retained, so the user can retry without re-uploading.
func (c *Controller) UploadImage(ctx context.Context, img snapshot.ImageRef) error {
	if img.IsZero() {
		return ErrInvalidInput
	}
	cur, err := c.begin(snapshot.StageAnalyzing, snapshot.StageUpload)
	if err != nil {
		return err
	}

	analysis, aerr := c.personas.Analyst.Analyze(ctx, img)
	var suggestions []string
	if aerr == nil {
		suggestions, aerr = c.personas.Curator.Suggest(ctx, analysis.StyleDescription, analysis.Opportunities)
	}

	if aerr != nil {
		log.Printf("workflow: analysis failed: %v", aerr)
		c.end(func() {
			retained := cur.Clone()
			retained.SourceImage = img
			c.hist.Overwrite(retained)
		})
		return aerr
	}
	c.end(func() {
		next := cur.Clone()
		next.Stage = snapshot.StageSuggestionsReady
		next.SourceImage = img
		next.Analysis = analysis
		next.Suggestions = suggestions
		c.hist.Append(next)
	})
	return nil
}

// RequestDesign runs Supervisor then the three-way Designer fan-out.
// Allowed from suggestions_ready and from done (a further iteration on a
// finished project). Failure regresses to suggestions_ready.
func (c *Controller) RequestDesign(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrInvalidInput
	}
	cur, err := c.begin(snapshot.StageSupervising,
		snapshot.StageSuggestionsReady, snapshot.StageDone)
	if err != nil {
		return err
	}

	directive := prompt
	if cur.ReworkDiagnosis != "" {
		directive += "\n\nNotes from the previous attempt:\n" + cur.ReworkDiagnosis
	}
	brief, derr := c.personas.Supervisor.Enhance(ctx, directive)
	var images []snapshot.ImageRef
	if derr == nil {
		c.setBusyStage(snapshot.StageDesigning)
		images, derr = c.personas.Designer.Generate(ctx, cur.SourceImage, brief)
	}

	if derr != nil {
		log.Printf("workflow: design round failed: %v", derr)
		c.end(func() {
			// Regression never moves forward: a failed round from done
			// drops back to suggestions_ready in place.
			if cur.Stage == snapshot.StageDone {
				regressed := cur.Clone()
				regressed.Stage = snapshot.StageSuggestionsReady
				c.hist.Overwrite(regressed)
			}
		})
		return derr
	}
	c.end(func() {
		next := cur.Clone()
		next.Stage = snapshot.StageReviewing
		next.Prompt = prompt
		next.EnhancedPrompt = brief
		next.GeneratedImages = images
		next.SelectedImage = nil
		c.hist.Append(next)
	})
	return nil
}

// RequestRework asks the Art Director to diagnose the feedback. Success
// returns the project to suggestions_ready with the diagnosis retained
// and the feedback consumed.
func (c *Controller) RequestRework(ctx context.Context, feedback string) error {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return ErrInvalidInput
	}
	cur, err := c.begin(snapshot.StageReworking, snapshot.StageReviewing)
	if err != nil {
		return err
	}

	diagnosis, derr := c.personas.ArtDirector.Diagnose(ctx, cur.EnhancedPrompt, feedback)
	if derr != nil {
		log.Printf("workflow: rework failed: %v", derr)
		c.end(nil)
		return derr
	}
	c.end(func() {
		next := cur.Clone()
		next.Stage = snapshot.StageSuggestionsReady
		next.ReworkDiagnosis = diagnosis
		next.ReworkFeedback = ""
		c.hist.Append(next)
	})
	return nil
}

// Finalize runs the two Project Manager calls over the selected image.
func (c *Controller) Finalize(ctx context.Context) error {
	cur, err := c.begin(snapshot.StageFinalizing, snapshot.StageReviewing)
	if err != nil {
		return err
	}
	selected, ok := cur.Selected()
	if !ok {
		c.end(nil)
		return ErrInvalidInput
	}

	description, ferr := c.personas.ProjectManager.Describe(ctx, selected)
	var plan *snapshot.FinalPlan
	if ferr == nil {
		plan, ferr = c.personas.ProjectManager.Plan(ctx, description)
	}

	if ferr != nil {
		log.Printf("workflow: finalize failed: %v", ferr)
		c.end(nil)
		return ferr
	}
	c.end(func() {
		next := cur.Clone()
		next.Stage = snapshot.StageDone
		next.FinalPlan = plan
		c.hist.Append(next)
	})
	return nil
}

// SetPrompt records prompt text in place. Continuous edits never create
// undo steps.
func (c *Controller) SetPrompt(prompt string) error {
	return c.overwriteField(func(s *snapshot.ProjectSnapshot) error {
		s.Prompt = prompt
		return nil
	})
}

// SetReworkFeedback records feedback text in place.
func (c *Controller) SetReworkFeedback(feedback string) error {
	return c.overwriteField(func(s *snapshot.ProjectSnapshot) error {
		s.ReworkFeedback = feedback
		return nil
	})
}

// SelectImage records the user's pick in place.
func (c *Controller) SelectImage(index int) error {
	return c.overwriteField(func(s *snapshot.ProjectSnapshot) error {
		if index < 0 || index >= len(s.GeneratedImages) {
			return ErrInvalidInput
		}
		s.SelectedImage = &index
		return nil
	})
}

func (c *Controller) overwriteField(mutate func(*snapshot.ProjectSnapshot) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	next := c.hist.Current()
	if err := mutate(&next); err != nil {
		return err
	}
	c.hist.Overwrite(next)
	return nil
}

func (c *Controller) Undo() bool {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return false
	}
	moved := c.hist.Undo()
	stage := c.hist.Current().Stage
	c.mu.Unlock()
	if moved {
		c.notify(Event{Stage: stage})
	}
	return moved
}

func (c *Controller) Redo() bool {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return false
	}
	moved := c.hist.Redo()
	stage := c.hist.Current().Stage
	c.mu.Unlock()
	if moved {
		c.notify(Event{Stage: stage})
	}
	return moved
}

// StartOver discards everything and returns to a fresh upload stage.
func (c *Controller) StartOver() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.hist.Reset(snapshot.Initial())
	c.mu.Unlock()
	c.notify(Event{Stage: snapshot.StageUpload})
	return nil
}

// LoadSnapshot replaces the whole history with a saved project's state.
func (c *Controller) LoadSnapshot(s snapshot.ProjectSnapshot) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.hist.Reset(s.Clone())
	stage := s.Stage
	c.mu.Unlock()
	c.notify(Event{Stage: stage})
	return nil
}
