package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"roomcraft/internal/export"
	"roomcraft/internal/llmclient"
	"roomcraft/internal/media"
	"roomcraft/internal/persona"
	"roomcraft/internal/repository/artifact"
	"roomcraft/internal/repository/savedproject"
	"roomcraft/internal/snapshot"
	"roomcraft/internal/workflow"
)

const maxUploadBytes = 20 << 20

type Handlers struct {
	registry  *Registry
	projects  *savedproject.Store
	artifacts artifact.Store
	exporter  *export.Exporter
}

func NewHandlers(registry *Registry, projects *savedproject.Store, artifacts artifact.Store) *Handlers {
	return &Handlers{
		registry:  registry,
		projects:  projects,
		artifacts: artifacts,
		exporter:  export.NewExporter(),
	}
}

// sessionState is the envelope every session endpoint returns.
type sessionState struct {
	SessionID string                   `json:"session_id"`
	Snapshot  snapshot.ProjectSnapshot `json:"snapshot"`
	Busy      bool                     `json:"busy"`
	CanUndo   bool                     `json:"can_undo"`
	CanRedo   bool                     `json:"can_redo"`
}

func (h *Handlers) state(s *Session) sessionState {
	return sessionState{
		SessionID: s.ID,
		Snapshot:  s.Controller.Current(),
		Busy:      s.Controller.Busy(),
		CanUndo:   s.Controller.CanUndo(),
		CanRedo:   s.Controller.CanRedo(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrNotThisStage),
		errors.Is(err, export.ErrNotExportable):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidInput),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, media.ErrBadDataURL):
		return http.StatusBadRequest
	case errors.Is(err, savedproject.ErrNotFound),
		errors.Is(err, artifact.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, savedproject.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	case errors.Is(err, persona.ErrNoImages),
		errors.Is(err, llmclient.ErrBackend),
		errors.Is(err, llmclient.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, ok := h.registry.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Create()
	writeJSON(w, http.StatusCreated, h.state(s))
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

// upload accepts a multipart file under "image" or a JSON body with a
// data_url field, then runs the analysis round.
func (h *Handlers) upload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ref, name, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Keep the full-resolution original around for export and reload.
	if raw, derr := media.DecodeBytes(ref); derr == nil {
		if perr := h.artifacts.Put(r.Context(), s.ID, "source/"+name, ref.MIMEType, raw); perr != nil {
			log.Printf("server: archive upload: %v", perr)
		}
	}

	if err := s.Controller.UploadImage(r.Context(), ref); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) readUpload(r *http.Request) (snapshot.ImageRef, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return snapshot.ImageRef{}, "", fmt.Errorf("%w: %v", workflow.ErrInvalidInput, err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return snapshot.ImageRef{}, "", fmt.Errorf("%w: missing image field", workflow.ErrInvalidInput)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return snapshot.ImageRef{}, "", fmt.Errorf("%w: %v", workflow.ErrInvalidInput, err)
		}
		ref, err := media.FromBytes(data, header.Filename)
		return ref, header.Filename, err
	}

	var body struct {
		DataURL string `json:"data_url"`
	}
	if err := decodeBody(r, &body); err != nil {
		return snapshot.ImageRef{}, "", err
	}
	ref, err := media.ParseDataURL(body.DataURL)
	return ref, "upload", err
}

func (h *Handlers) design(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Controller.RequestDesign(r.Context(), body.Prompt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) rework(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Controller.RequestRework(r.Context(), body.Feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) finalize(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Controller.Finalize(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) selectImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Index int `json:"index"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Controller.SelectImage(body.Index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) setPrompt(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Controller.SetPrompt(body.Prompt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller.Undo()
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller.Redo()
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) startOver(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Controller.StartOver(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) saveProject(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if s.Controller.Busy() {
		writeError(w, workflow.ErrBusy)
		return
	}
	rec, err := h.projects.Save(r.Context(), body.Name, s.Controller.Current())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	records, err := h.projects.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": records})
}

// loadProject restores a saved project into a session. Without a
// session_id in the body a fresh session is created.
func (h *Handlers) loadProject(w http.ResponseWriter, r *http.Request) {
	rec, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	// The body is optional.
	_ = decodeBody(r, &body)

	var s *Session
	if body.SessionID != "" {
		existing, ok := h.registry.Get(body.SessionID)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		s = existing
	} else {
		s = h.registry.Create()
	}
	if err := s.Controller.LoadSnapshot(rec.Snapshot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.state(s))
}

func (h *Handlers) favoriteProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.projects.SetFavorite(r.Context(), r.PathValue("id"), body.Favorite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) deleteAllProjects(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportPDF renders the two-page document. When the artifact backend can
// mint a download URL the response is a JSON pointer; otherwise the PDF
// streams back directly.
func (h *Handlers) exportPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := s.Controller.Current()
	var buf bytes.Buffer
	title := exportTitle(snap)
	if err := h.exporter.Export(&buf, title, snap); err != nil {
		writeError(w, err)
		return
	}

	const name = "design-plan.pdf"
	if err := h.artifacts.Put(r.Context(), s.ID, name, "application/pdf", buf.Bytes()); err != nil {
		log.Printf("server: store export: %v", err)
	} else if url, err := h.artifacts.URL(r.Context(), s.ID, name); err == nil && url != "" {
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("server: stream export: %v", err)
	}
}

func exportTitle(snap snapshot.ProjectSnapshot) string {
	if p := strings.TrimSpace(snap.Prompt); p != "" {
		return p
	}
	return "Design Plan"
}
