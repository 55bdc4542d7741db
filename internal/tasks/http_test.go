package tasks

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/s1natex/taskboard-GO/internal/kv"
)

func newTestServer(t *testing.T) (*chi.Mux, *LocalStore) {
	t.Helper()
	store := NewLocalStore(kv.NewMemory(), WithClock(func() time.Time { return fixedNow }))
	r := chi.NewRouter()
	RegisterRoutes(r, store, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return r, store
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func getTasks(t *testing.T, r http.Handler, query string) []Task {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks"+query, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var list []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	return list
}

func TestAddTask_Success(t *testing.T) {
	r, _ := newTestServer(t)

	rec := postForm(r, "/add_task", url.Values{"task_content": {"learn chi"}, "category": {"Work"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d, body=%s", rec.Code, rec.Body.String())
	}

	list := getTasks(t, r, "?filter=all&category=Work")
	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
	got := list[0]
	if got.ID != 4 {
		t.Errorf("expected ID 4, got %d", got.ID)
	}
	if got.Content != "learn chi" {
		t.Errorf("expected content 'learn chi', got %q", got.Content)
	}
	if got.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %q", got.Priority)
	}
	if got.Completed {
		t.Errorf("new tasks should default to completed=false")
	}
}

func TestAddTask_EmptyContentIgnored(t *testing.T) {
	r, _ := newTestServer(t)

	rec := postForm(r, "/add_task", url.Values{"task_content": {""}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	if n := len(getTasks(t, r, "")); n != 3 {
		t.Fatalf("expected 3 tasks, got %d", n)
	}
}

func TestAddTask_InvalidPriority(t *testing.T) {
	r, _ := newTestServer(t)

	rec := postForm(r, "/add_task", url.Values{"task_content": {"x"}, "priority": {"urgent"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestToggleTask(t *testing.T) {
	r, _ := newTestServer(t)

	rec := postForm(r, "/toggle_task/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success=true, got %v", resp)
	}

	done := getTasks(t, r, "?filter=completed")
	if len(done) != 1 || done[0].ID != 2 {
		t.Fatalf("expected only task 2 completed, got %+v", done)
	}
}

func TestMutations_UnknownAndInvalidIDs(t *testing.T) {
	r, _ := newTestServer(t)

	cases := []struct {
		path string
		form url.Values
		want int
	}{
		{"/toggle_task/99", nil, http.StatusNotFound},
		{"/delete_task/99", nil, http.StatusNotFound},
		{"/update_task_priority/99", url.Values{"priority": {"low"}}, http.StatusNotFound},
		{"/update_task_category/99", url.Values{"category": {"Work"}}, http.StatusNotFound},
		{"/toggle_task/abc", nil, http.StatusBadRequest},
		{"/update_task_priority/1", url.Values{"priority": {"urgent"}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := postForm(r, tc.path, tc.form)
		if rec.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.want, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"success":false`) {
			t.Errorf("%s: expected success=false body, got %s", tc.path, rec.Body.String())
		}
	}
}

func TestDeleteAndUpdate(t *testing.T) {
	r, _ := newTestServer(t)

	if rec := postForm(r, "/delete_task/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := postForm(r, "/update_task_priority/2", url.Values{"priority": {"low"}}); rec.Code != http.StatusOK {
		t.Fatalf("priority: expected 200, got %d", rec.Code)
	}
	if rec := postForm(r, "/update_task_category/3", url.Values{"category": {"Health"}}); rec.Code != http.StatusOK {
		t.Fatalf("category: expected 200, got %d", rec.Code)
	}

	list := getTasks(t, r, "")
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].ID != 2 || list[0].Priority != PriorityLow {
		t.Errorf("unexpected task 2: %+v", list[0])
	}
	if list[1].ID != 3 || list[1].Category != "Health" {
		t.Errorf("unexpected task 3: %+v", list[1])
	}
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?category=Nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}
