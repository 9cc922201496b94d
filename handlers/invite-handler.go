package handlers

import (
	"net/http"
	"strings"

	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type InviteHandler struct {
	Service *services.InvitationService
}

func NewInviteHandler(service *services.InvitationService) *InviteHandler {
	return &InviteHandler{Service: service}
}

func (h *InviteHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req services.SendInviteInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	invitation, err := h.Service.Send(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"invitation": invitation})
}

func (h *InviteHandler) Received(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.Service.Received(r.Context(), currentUser(r).ID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}

func (h *InviteHandler) Sent(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.Service.Sent(r.Context(), currentUser(r).ID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}

// normalizeAction also accepts the imperative forms "accept" and "decline".
func normalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	switch action {
	case "accept":
		return "accepted"
	case "decline":
		return "declined"
	default:
		return action
	}
}

func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "inviteId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	invitation, err := h.Service.Respond(r.Context(), currentUser(r).ID, id, normalizeAction(req.Action))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitation": invitation})
}
