package tasks

import "strings"

// Status selects tasks by completion.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// AllCategories is the category filter value that matches every task.
const AllCategories = "all"

// ParseStatus maps unknown or empty values to StatusAll.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusCompleted:
		return st
	}
	return StatusAll
}

// Query is the status and category filter applied to a collection.
// The zero value matches everything.
type Query struct {
	Status   Status
	Category string
}

func (q Query) Match(t Task) bool {
	switch q.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if q.Category != "" && q.Category != AllCategories && t.Category != q.Category {
		return false
	}
	return true
}

// Apply returns the matching tasks in their original order. The input is not modified.
func (q Query) Apply(in []Task) []Task {
	out := make([]Task, 0, len(in))
	for _, t := range in {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the distinct non-empty categories in first-appearance order.
func Categories(in []Task) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, t := range in {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}
