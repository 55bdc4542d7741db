package board

import (
	"slices"
	"time"

	"github.com/s1natex/taskboard-GO/internal/tasks"
)

// RemoveDelay is how long a deleted item stays on screen in its deleting state.
const RemoveDelay = 300 * time.Millisecond

const todayLayout = "Monday, January 2, 2006"

// CategoryChoices are always offered by the category selectors.
var CategoryChoices = []string{"General", "Work", "Personal", "Shopping", "Health", "Education", "Tutorial"}

type PriorityOption struct {
	Value  tasks.Priority
	Label  string
	Active bool
}

type CategoryOption struct {
	Value    string
	Selected bool
}

// TaskView is everything the task template needs. Full renders and
// single-task fragments are both produced from it.
type TaskView struct {
	ID              int64
	Content         string
	CreatedAt       string
	Category        string
	Priority        tasks.Priority
	Completed       bool
	ItemClass       string
	ToggleClass     string
	IconClass       string
	PriorityClass   string
	PriorityOptions []PriorityOption
	CategoryOptions []CategoryOption
}

func NewTaskView(t tasks.Task) TaskView {
	p := t.Priority
	if p == "" {
		p = tasks.PriorityMedium
	}
	c := t.Category
	if c == "" {
		c = tasks.DefaultCategory
	}

	v := TaskView{
		ID:            t.ID,
		Content:       t.Content,
		CreatedAt:     t.CreatedAt,
		Category:      c,
		Priority:      p,
		Completed:     t.Completed,
		ItemClass:     "task-item",
		ToggleClass:   "toggle-btn",
		IconClass:     "far fa-circle",
		PriorityClass: "task-priority-indicator priority-" + string(p),
	}
	if t.Completed {
		v.ItemClass += " completed"
		v.ToggleClass += " checked"
		v.IconClass = "fas fa-check-circle"
	}
	for _, opt := range tasks.Priorities {
		v.PriorityOptions = append(v.PriorityOptions, PriorityOption{Value: opt, Label: opt.Label(), Active: opt == p})
	}
	for _, name := range categoryChoices(c) {
		v.CategoryOptions = append(v.CategoryOptions, CategoryOption{Value: name, Selected: name == c})
	}
	return v
}

func categoryChoices(current string) []string {
	if current == "" || slices.Contains(CategoryChoices, current) {
		return CategoryChoices
	}
	return append(slices.Clone(CategoryChoices), current)
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient toast shown once after an action.
type Notice struct {
	Kind    NoticeKind
	Message string
}

func (n Notice) IsZero() bool { return n.Message == "" }

func (n Notice) IconClass() string {
	switch n.Kind {
	case NoticeSuccess:
		return "notification-icon fas fa-check-circle"
	case NoticeError:
		return "notification-icon fas fa-exclamation-circle"
	default:
		return "notification-icon fas fa-info-circle"
	}
}

func ParseNoticeKind(s string) NoticeKind {
	switch k := NoticeKind(s); k {
	case NoticeSuccess, NoticeError:
		return k
	}
	return NoticeInfo
}

type Link struct {
	Label  string
	Href   string
	Active bool
	Value  string
}

// Page is the view model of the whole board.
type Page struct {
	State           ViewState
	Tasks           []TaskView
	Filters         []Link
	Categories      []Link
	Layouts         []Link
	FilterLabel     string
	ListClass       string
	Empty           bool
	Today           string
	DarkMode        bool
	Notice          Notice
	RemoveDelayMS   int64
	Priorities      []PriorityOption
	CategoryChoices []string
}

var filterLabels = []struct {
	Status tasks.Status
	Label  string
}{
	{tasks.StatusAll, "All Tasks"},
	{tasks.StatusActive, "Active"},
	{tasks.StatusCompleted, "Completed"},
}

// PageInput is what BuildPage needs besides the view state.
type PageInput struct {
	Tasks      []tasks.Task
	Categories []string
	DarkMode   bool
	Notice     Notice
	Now        time.Time
}

// BuildPage is a pure function of its inputs. The task list is filtered here
// as well, so a store that ignores part of the query still renders correctly.
func BuildPage(state ViewState, in PageInput) Page {
	p := Page{
		State:           state,
		DarkMode:        in.DarkMode,
		Notice:          in.Notice,
		Today:           in.Now.Format(todayLayout),
		RemoveDelayMS:   RemoveDelay.Milliseconds(),
		ListClass:       "task-list",
		CategoryChoices: CategoryChoices,
	}
	if state.Layout == LayoutGrid {
		p.ListClass += " grid-view"
	}

	for _, t := range state.Query().Apply(in.Tasks) {
		p.Tasks = append(p.Tasks, NewTaskView(t))
	}
	p.Empty = len(p.Tasks) == 0

	for _, f := range filterLabels {
		active := f.Status == state.Filter
		if active {
			p.FilterLabel = f.Label
		}
		p.Filters = append(p.Filters, Link{
			Label:  f.Label,
			Href:   state.WithFilter(f.Status).Href(),
			Active: active,
			Value:  string(f.Status),
		})
	}

	p.Categories = append(p.Categories, Link{
		Label:  "All Categories",
		Href:   state.WithCategory(tasks.AllCategories).Href(),
		Active: state.Category == tasks.AllCategories,
		Value:  tasks.AllCategories,
	})
	for _, c := range in.Categories {
		if c == "" {
			continue
		}
		p.Categories = append(p.Categories, Link{
			Label:  c,
			Href:   state.WithCategory(c).Href(),
			Active: c == state.Category,
			Value:  c,
		})
	}

	// layout switches happen in the page script and never reach the server
	for _, l := range []Layout{LayoutList, LayoutGrid} {
		p.Layouts = append(p.Layouts, Link{
			Label:  string(l),
			Active: l == state.Layout,
			Value:  string(l),
		})
	}

	for _, pr := range tasks.Priorities {
		p.Priorities = append(p.Priorities, PriorityOption{Value: pr, Label: pr.Label(), Active: pr == tasks.PriorityMedium})
	}
	return p
}
