package handlers

import (
	"net/http"
	"strconv"

	"github.com/Mel4sa/WORKNEST-sub000/services"
)

type ProjectHandler struct {
	Service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Service: service}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), services.ListProjectsInput{
		Status: q.Get("status"),
		Tags:   q.Get("tags"),
		Search: q.Get("search"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ProjectHandler) Mine(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.Mine(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, err := h.Service.Get(r.Context(), id, viewerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

func (h *ProjectHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := h.Service.Members(r.Context(), id, viewerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	project, err := h.Service.Create(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"project": project})
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.UpdateProjectInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	project, err := h.Service.Update(r.Context(), currentUser(r).ID, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hard, _ := strconv.ParseBool(r.URL.Query().Get("hard"))
	if err := h.Service.Delete(r.Context(), currentUser(r).ID, id, hard); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}

func (h *ProjectHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, err := h.Service.Join(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

func (h *ProjectHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Leave(r.Context(), currentUser(r).ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Left project successfully")
}

func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.RemoveMember(r.Context(), currentUser(r).ID, id, target); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Member removed successfully")
}
