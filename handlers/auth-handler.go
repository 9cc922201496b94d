package handlers

import (
	"net/http"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Service.Register(r.Context(), req)
	if err != nil {
		logging.Logger.Warnf("Event ID: REGISTER_FAILED, Description: Registration failed: %v", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", result.User.ID.Hex())
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": currentUser(r)})
}

// Logout only acknowledges; tokens are stateless and dropped by the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "If that e-mail is registered, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Token == "" || req.Password == "" {
		writeError(w, r, invalid("token and password are required"))
		return
	}
	if err := h.Service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset")
}
