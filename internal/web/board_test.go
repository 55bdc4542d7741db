package web

import (
	"context"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1natex/taskboard-GO/internal/board"
	"github.com/s1natex/taskboard-GO/internal/kv"
	"github.com/s1natex/taskboard-GO/internal/tasks"
)

// newRemoteRouter serves the board from a RemoteStore whose collaborator
// counts how often the collection is listed.
func newRemoteRouter(t *testing.T) (*chi.Mux, *tasks.LocalStore, *atomic.Int32) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	backing := tasks.NewLocalStore(kv.NewMemory())
	require.NoError(t, backing.Load(context.Background()))

	var lists atomic.Int32
	api := chi.NewRouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/api/tasks" {
				lists.Add(1)
			}
			next.ServeHTTP(w, r)
		})
	})
	tasks.RegisterRoutes(api, backing, logger)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	remote, err := tasks.NewRemoteStore(srv.URL)
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, board.NewController(remote, board.NewPreferences(kv.NewMemory()), logger), logger)
	return r, backing, &lists
}

var hrefPattern = regexp.MustCompile(`href="([^"]*)"`)

func TestPage_LayoutSwitchNeverRelists(t *testing.T) {
	r, _, lists := newRemoteRouter(t)

	rec := get(r, "/?view=list")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int32(1), lists.Load())
	body := rec.Body.String()

	assert.Contains(t, body, `<button type="button" class="view-btn active" data-view="list">list</button>`)
	assert.Contains(t, body, `<button type="button" class="view-btn" data-view="grid">grid</button>`)
	assert.Contains(t, body, `list.classList.toggle("grid-view", st.view === "grid")`)

	// every link on the board either lists something else or is not a board link
	current := board.StateFromValues(url.Values{"view": {"list"}})
	for _, m := range hrefPattern.FindAllStringSubmatch(body, -1) {
		href := html.UnescapeString(m[1])
		if !strings.HasPrefix(href, "/?") {
			continue
		}
		u, err := url.Parse(href)
		require.NoError(t, err)
		next := board.StateFromValues(u.Query())
		if next != current && !next.NeedsRefetch(current) {
			t.Errorf("link %s only changes the layout", href)
		}
	}
	assert.Equal(t, int32(1), lists.Load())
}

func TestListFragment(t *testing.T) {
	r, backing, lists := newRemoteRouter(t)
	require.NoError(t, backing.Toggle(context.Background(), 1))

	rec := get(r, "/ui/list?filter=completed&category=all&view=grid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), lists.Load())

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="task-board">`))
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, `class="task-list grid-view"`)
	assert.Equal(t, 1, strings.Count(body, `class="task-item`))
	assert.Contains(t, body, `data-id="1"`)
}

func TestListFragment_MatchesPageBoard(t *testing.T) {
	r, _ := newTestRouter(t)

	fragment := get(r, "/ui/list?filter=active&category=Tutorial").Body.String()
	page := get(r, "/?filter=active&category=Tutorial").Body.String()
	assert.Contains(t, page, fragment)
}

func TestPage_ScriptUsesFragments(t *testing.T) {
	r, _ := newTestRouter(t)
	body := get(r, "/").Body.String()

	assert.Contains(t, body, `"`+FragmentHeader+`": "true"`)
	assert.Contains(t, body, `resp.headers.get("`+NoticeHeader+`")`)
	assert.Contains(t, body, `resp.headers.get("`+NoticeKindHeader+`")`)
	assert.Contains(t, body, `fetch("/ui/list"`)
	assert.Contains(t, body, `class="delete-form"`)
	assert.NotContains(t, body, "this.form.submit()")
}

func TestToggle_RemoteFragment(t *testing.T) {
	r, backing, _ := newRemoteRouter(t)

	rec := post(r, "/ui/tasks/2/toggle", nil, map[string]string{FragmentHeader: "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task completed!", notice(t, rec))
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div class="task-item completed" data-id="2"`))

	task, err := tasks.Find(context.Background(), backing, 2)
	require.NoError(t, err)
	assert.True(t, task.Completed)
}
