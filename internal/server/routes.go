package server

import "net/http"

// Routes wires the full JSON surface behind the CORS middleware.
func Routes(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/session", h.createSession)
	mux.HandleFunc("GET /v1/session/{id}", h.getSession)
	mux.HandleFunc("GET /v1/session/{id}/events", h.events)

	mux.HandleFunc("POST /v1/session/{id}/upload", h.upload)
	mux.HandleFunc("POST /v1/session/{id}/design", h.design)
	mux.HandleFunc("POST /v1/session/{id}/rework", h.rework)
	mux.HandleFunc("POST /v1/session/{id}/finalize", h.finalize)
	mux.HandleFunc("POST /v1/session/{id}/select", h.selectImage)
	mux.HandleFunc("POST /v1/session/{id}/prompt", h.setPrompt)
	mux.HandleFunc("POST /v1/session/{id}/undo", h.undo)
	mux.HandleFunc("POST /v1/session/{id}/redo", h.redo)
	mux.HandleFunc("POST /v1/session/{id}/start-over", h.startOver)
	mux.HandleFunc("POST /v1/session/{id}/save", h.saveProject)
	mux.HandleFunc("POST /v1/session/{id}/export", h.exportPDF)

	mux.HandleFunc("GET /v1/projects", h.listProjects)
	mux.HandleFunc("POST /v1/projects/{id}/load", h.loadProject)
	mux.HandleFunc("POST /v1/projects/{id}/favorite", h.favoriteProject)
	mux.HandleFunc("DELETE /v1/projects/{id}", h.deleteProject)
	mux.HandleFunc("DELETE /v1/projects", h.deleteAllProjects)

	return cors(mux)
}
