// Package board turns a task collection plus the user's view selections into
// the rendered task board.
package board

import (
	"net/url"
	"strings"

	"github.com/s1natex/taskboard-GO/internal/tasks"
)

type Layout string

const (
	LayoutList Layout = "list"
	LayoutGrid Layout = "grid"
)

func ParseLayout(s string) Layout {
	if Layout(strings.ToLower(strings.TrimSpace(s))) == LayoutGrid {
		return LayoutGrid
	}
	return LayoutList
}

// ViewState is the status filter, category filter and layout the board is
// shown with. It is a value: the With methods return a modified copy.
type ViewState struct {
	Filter   tasks.Status
	Category string
	Layout   Layout
}

func DefaultState() ViewState {
	return ViewState{
		Filter:   tasks.StatusAll,
		Category: tasks.AllCategories,
		Layout:   LayoutList,
	}
}

func (s ViewState) WithFilter(f tasks.Status) ViewState {
	s.Filter = tasks.ParseStatus(string(f))
	return s
}

func (s ViewState) WithCategory(c string) ViewState {
	if strings.TrimSpace(c) == "" {
		c = tasks.AllCategories
	}
	s.Category = c
	return s
}

func (s ViewState) WithLayout(l Layout) ViewState {
	s.Layout = ParseLayout(string(l))
	return s
}

// Query is the store filter this state lists with. Layout does not take part.
func (s ViewState) Query() tasks.Query {
	return tasks.Query{Status: s.Filter, Category: s.Category}
}

// NeedsRefetch reports whether moving from prev to s changes the listed tasks
// rather than only their arrangement.
func (s ViewState) NeedsRefetch(prev ViewState) bool {
	return s.Query() != prev.Query()
}

// StateFromValues reads filter, category and view parameters, falling back to
// defaults for anything missing or unknown.
func StateFromValues(v url.Values) ViewState {
	return DefaultState().
		WithFilter(tasks.Status(v.Get("filter"))).
		WithCategory(v.Get("category")).
		WithLayout(Layout(v.Get("view")))
}

func (s ViewState) Values() url.Values {
	v := url.Values{}
	v.Set("filter", string(s.Filter))
	v.Set("category", s.Category)
	v.Set("view", string(s.Layout))
	return v
}

// Href is the board URL for this state.
func (s ViewState) Href() string {
	return "/?" + s.Values().Encode()
}
