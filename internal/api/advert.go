package api

import (
	"net/http"
	"strings"

	"defi-hub/internal/domain"
)

func (h *handler) listActiveAdverts(w http.ResponseWriter, r *http.Request) {
	placement := domain.Placement(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("placement"))))
	adverts, err := h.Adverts.ListActive(r.Context(), placement, h.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"adverts": nonNilAdverts(adverts)})
}

func (h *handler) listAllAdverts(w http.ResponseWriter, r *http.Request) {
	adverts, err := h.Adverts.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"adverts": nonNilAdverts(adverts)})
}

func (h *handler) getAdvert(w http.ResponseWriter, r *http.Request) {
	a, err := h.Adverts.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) advertImpression(w http.ResponseWriter, r *http.Request) {
	if err := h.Adverts.RecordImpression(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) advertClick(w http.ResponseWriter, r *http.Request) {
	if err := h.Adverts.RecordClick(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) createAdvert(w http.ResponseWriter, r *http.Request) {
	var a domain.Advert
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Adverts.Create(r.Context(), &a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updateAdvert(w http.ResponseWriter, r *http.Request) {
	var a domain.Advert
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Adverts.Update(r.Context(), pathParam(r, "id"), &a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteAdvert(w http.ResponseWriter, r *http.Request) {
	if err := h.Adverts.Delete(r.Context(), pathParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNilAdverts(a []*domain.Advert) []*domain.Advert {
	if a == nil {
		return []*domain.Advert{}
	}
	return a
}
