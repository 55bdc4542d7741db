// Package web serves the task board page and the form actions behind it.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/taskboard-GO/internal/board"
	"github.com/s1natex/taskboard-GO/internal/tasks"
)

// FragmentHeader asks an action endpoint to answer with the re-rendered task
// instead of redirecting back to the board.
const FragmentHeader = "X-Fragment"

// NoticeHeader carries the path-escaped notice text on fragment responses,
// NoticeKindHeader its kind.
const (
	NoticeHeader     = "X-Notice"
	NoticeKindHeader = "X-Notice-Kind"
)

func RegisterRoutes(r chi.Router, c *board.Controller, logger *slog.Logger) {
	h := &handlers{c: c, logger: logger}
	r.Get("/", h.page)
	r.Route("/ui", func(r chi.Router) {
		r.Get("/list", h.listFragment)
		r.Post("/tasks", h.addTask)
		r.Get("/tasks/{id}", h.taskFragment)
		r.Post("/tasks/{id}/toggle", h.toggleTask)
		r.Post("/tasks/{id}/delete", h.deleteTask)
		r.Post("/tasks/{id}/priority", h.setPriority)
		r.Post("/tasks/{id}/category", h.setCategory)
		r.Post("/theme", h.setTheme)
	})
}

type handlers struct {
	c      *board.Controller
	logger *slog.Logger
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := board.StateFromValues(q)
	notice := board.Notice{Message: q.Get("notice"), Kind: board.ParseNoticeKind(q.Get("notice_kind"))}

	p := h.c.Page(r.Context(), state, notice)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := board.PageComponent(p).Render(r.Context(), w); err != nil {
		h.logger.Error("render_page_failed", slog.String("error", err.Error()))
	}
}

// listFragment renders just the task board for a filter or category change.
func (h *handlers) listFragment(w http.ResponseWriter, r *http.Request) {
	p := h.c.Page(r.Context(), board.StateFromValues(r.URL.Query()), board.Notice{})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	setNotice(w, p.Notice)
	if err := board.RenderList(w, p); err != nil {
		h.logger.Error("render_list_failed", slog.String("error", err.Error()))
	}
}

func (h *handlers) taskFragment(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.writeFragment(w, r, id, board.Notice{})
}

func (h *handlers) addTask(w http.ResponseWriter, r *http.Request) {
	d := tasks.Draft{
		Content:  r.FormValue("task_content"),
		Priority: tasks.Priority(r.FormValue("priority")),
		Category: r.FormValue("category"),
	}
	h.back(w, r, h.c.Add(r.Context(), d))
}

func (h *handlers) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.finish(w, r, id, h.c.Toggle(r.Context(), id))
}

func (h *handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	n := h.c.Remove(r.Context(), id)
	if wantsFragment(r) {
		setNotice(w, n)
		if n.Kind == board.NoticeError {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.back(w, r, n)
}

func (h *handlers) setPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	p, err := tasks.ParsePriority(r.FormValue("priority"))
	if err != nil {
		http.Error(w, "invalid priority", http.StatusBadRequest)
		return
	}
	h.finish(w, r, id, h.c.SetPriority(r.Context(), id, p))
}

func (h *handlers) setCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	h.finish(w, r, id, h.c.SetCategory(r.Context(), id, r.FormValue("category")))
}

func (h *handlers) setTheme(w http.ResponseWriter, r *http.Request) {
	h.back(w, r, h.c.SetDarkMode(r.Context(), r.FormValue("dark_mode") == "enabled"))
}

// finish answers a single-task action either with the patched fragment or
// with a redirect to the board the action was submitted from.
func (h *handlers) finish(w http.ResponseWriter, r *http.Request, id int64, n board.Notice) {
	if wantsFragment(r) {
		h.writeFragment(w, r, id, n)
		return
	}
	h.back(w, r, n)
}

func (h *handlers) writeFragment(w http.ResponseWriter, r *http.Request, id int64, n board.Notice) {
	v, err := h.c.Task(r.Context(), id)
	if errors.Is(err, tasks.ErrTaskNotFound) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("task_fragment_failed", slog.Int64("id", id), slog.String("error", err.Error()))
		http.Error(w, "task unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	setNotice(w, n)
	if err := board.RenderTask(w, v); err != nil {
		h.logger.Error("render_task_failed", slog.String("error", err.Error()))
	}
}

// back redirects to the board state the form was posted from, carrying the notice.
func (h *handlers) back(w http.ResponseWriter, r *http.Request, n board.Notice) {
	state := board.DefaultState()
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == "/" {
		state = board.StateFromValues(ref.Query())
	}
	v := state.Values()
	if !n.IsZero() {
		v.Set("notice", n.Message)
		v.Set("notice_kind", string(n.Kind))
	}
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

func setNotice(w http.ResponseWriter, n board.Notice) {
	if n.IsZero() {
		return
	}
	w.Header().Set(NoticeHeader, url.PathEscape(n.Message))
	w.Header().Set(NoticeKindHeader, string(n.Kind))
}

func wantsFragment(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.Header.Get(FragmentHeader))
	return v
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
