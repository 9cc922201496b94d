package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/middleware"
	"github.com/Mel4sa/WORKNEST-sub000/models"
	"github.com/Mel4sa/WORKNEST-sub000/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// statusFor maps service error kinds to HTTP codes. Conflict stays 400 for
// existing clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrCapacityExceeded),
		errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, map[string]string{"message": "Internal server error", "error": err.Error()})
		return
	}
	writeMessage(w, status, err.Error())
}

func invalid(message string) error {
	return &services.Error{Kind: services.ErrValidation, Message: message}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("request body is empty")
		}
		return invalid("invalid request payload")
	}
	return nil
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, invalid("invalid " + name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// currentUser is only called behind RequireAuth.
func currentUser(r *http.Request) *models.User {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

func viewerID(r *http.Request) *primitive.ObjectID {
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		return &user.ID
	}
	return nil
}
