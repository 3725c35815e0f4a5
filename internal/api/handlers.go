package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/apperr"
)

// Handler holds the HTTP handlers over the API service.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListArchives handles GET /archives.
func (h *Handler) ListArchives(w http.ResponseWriter, _ *http.Request) {
	metas, err := h.svc.ListArchives()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": metas})
}

// GetArchive handles GET /archives/*. The wildcard is the file path
// relative to the archive root, e.g. activities/piano.c.md.
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	data, err := h.svc.ReadArchive(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListKeys handles GET /keys.
func (h *Handler) ListKeys(w http.ResponseWriter, _ *http.Request) {
	keys, err := h.svc.Keys()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// Stats handles GET /stats?key=<prefix>&from=<date>&to=<date>.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.svc.Stats(q.Get("key"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// Recent handles GET /records/recent?limit=N.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": rows})
}

// Search handles GET /search?q=<query>&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}
