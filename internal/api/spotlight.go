package api

import (
	"net/http"

	"defi-hub/internal/domain"
)

func (h *handler) listActiveSpotlight(w http.ResponseWriter, r *http.Request) {
	at, err := timeQuery(r, "at", h.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.Spotlight.ListActive(r.Context(), at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": nonNilSpotlight(entries)})
}

func (h *handler) listAllSpotlight(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Spotlight.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": nonNilSpotlight(entries)})
}

func (h *handler) createSpotlight(w http.ResponseWriter, r *http.Request) {
	var t domain.SpotlightToken
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Spotlight.Create(r.Context(), &t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateSpotlight(w http.ResponseWriter, r *http.Request) {
	var t domain.SpotlightToken
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Spotlight.Update(r.Context(), pathParam(r, "id"), &t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteSpotlight(w http.ResponseWriter, r *http.Request) {
	if err := h.Spotlight.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNilSpotlight(s []*domain.SpotlightToken) []*domain.SpotlightToken {
	if s == nil {
		return []*domain.SpotlightToken{}
	}
	return s
}
