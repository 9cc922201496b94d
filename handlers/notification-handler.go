package handlers

import (
	"net/http"

	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), currentUser(r).ID, queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.UnreadCount(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.MarkRead(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	modified, err := h.Service.MarkAllRead(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modified": modified})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification deleted")
}
