package api

import (
	"net/http"

	"defi-hub/internal/domain"
)

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread := r.URL.Query().Get("unread")
	unreadOnly := unread == "true" || unread == "1"

	list, err := h.Notifications.List(r.Context(), wallet, unreadOnly, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *handler) unreadNotifications(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := h.Notifications.UnreadCount(r.Context(), wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), pathParam(r, "id"), wallet); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Notifications.MarkAllRead(r.Context(), wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *handler) createNotification(w http.ResponseWriter, r *http.Request) {
	var n domain.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Notifications.Create(r.Context(), &n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
