package handlers

import (
	"net/http"

	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Service.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *ChatHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	chat, err := h.Service.GetOrCreate(r.Context(), currentUser(r).ID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.UnreadCount(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "chatId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.History(r.Context(), currentUser(r).ID, chatID, queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "chatId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.SendMessageInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	message, err := h.Service.Send(r.Context(), currentUser(r).ID, chatID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": message})
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathID(r, "chatId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	modified, err := h.Service.MarkRead(r.Context(), currentUser(r).ID, chatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modified": modified})
}

func (h *ChatHandler) Edit(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "messageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.EditMessageInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	message, err := h.Service.Edit(r.Context(), currentUser(r).ID, messageID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": message})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathID(r, "messageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), currentUser(r).ID, messageID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Message deleted")
}
