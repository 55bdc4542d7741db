package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RegisterRoutes mounts the collaborator contract over any Store, so a local
// instance can back another instance's RemoteStore.
func RegisterRoutes(r chi.Router, store Store, logger *slog.Logger) {
	h := &handlers{store: store, logger: logger}
	r.Get("/api/tasks", h.listTasks)
	r.Post("/add_task", h.addTask)
	r.Post("/toggle_task/{id}", h.toggleTask)
	r.Post("/delete_task/{id}", h.deleteTask)
	r.Post("/update_task_priority/{id}", h.updatePriority)
	r.Post("/update_task_category/{id}", h.updateCategory)
}

type handlers struct {
	store  Store
	logger *slog.Logger
}

func (h *handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := Query{
		Status:   ParseStatus(r.URL.Query().Get("filter")),
		Category: r.URL.Query().Get("category"),
	}
	if q.Category == "" {
		q.Category = AllCategories
	}

	list, err := h.store.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list_tasks_failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unexpected_error"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) addTask(w http.ResponseWriter, r *http.Request) {
	d := Draft{
		Content:  r.FormValue("task_content"),
		Category: r.FormValue("category"),
	}
	if raw := r.FormValue("priority"); raw != "" {
		p, err := ParsePriority(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, successResponse{Error: "invalid_priority"})
			return
		}
		d.Priority = p
	}

	err := h.store.Add(r.Context(), d)
	switch {
	case err == nil, errors.Is(err, ErrContentRequired):
		// empty content is ignored without telling the caller
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.logger.Error("add_task_failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, successResponse{Error: "unexpected_error"})
	}
}

func (h *handlers) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.respond(w, "toggle_task", h.store.Toggle(r.Context(), id))
}

func (h *handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.respond(w, "delete_task", h.store.Remove(r.Context(), id))
}

func (h *handlers) updatePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	p, err := ParsePriority(r.FormValue("priority"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, successResponse{Error: "invalid_priority"})
		return
	}
	h.respond(w, "update_task_priority", h.store.SetPriority(r.Context(), id, p))
}

func (h *handlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.respond(w, "update_task_category", h.store.SetCategory(r.Context(), id, r.FormValue("category")))
}

func (h *handlers) respond(w http.ResponseWriter, op string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	case errors.Is(err, ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, successResponse{Error: "task_not_found"})
	case errors.Is(err, ErrInvalidPriority):
		writeJSON(w, http.StatusBadRequest, successResponse{Error: "invalid_priority"})
	default:
		h.logger.Error(op+"_failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, successResponse{Error: "unexpected_error"})
	}
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, successResponse{Error: "invalid_id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
