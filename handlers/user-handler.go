package handlers

import (
	"net/http"

	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type UserHandler struct {
	Service        *services.UserService
	MaxAvatarBytes int64
}

func NewUserHandler(service *services.UserService, maxAvatarBytes int64) *UserHandler {
	return &UserHandler{Service: service, MaxAvatarBytes: maxAvatarBytes}
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.SearchUsers(r.Context(), currentUser(r).ID, r.URL.Query().Get("q"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req services.ChangePasswordInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.ChangePassword(r.Context(), currentUser(r).ID, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

// UploadAvatar expects a multipart form with the image in the "avatar" field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxAvatarBytes+(1<<20))
	if err := r.ParseMultipartForm(h.MaxAvatarBytes); err != nil {
		writeError(w, r, invalid("file exceeds the upload limit or the form is malformed"))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, r, invalid("avatar file is required"))
		return
	}
	defer file.Close()

	url, err := h.Service.UploadAvatar(r.Context(), currentUser(r).ID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatarUrl": url})
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteAccount(r.Context(), currentUser(r).ID, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted successfully")
}
