package tasks

import (
	"fmt"
	"strings"
	"time"
)

// CreatedAtLayout is the display format of Task.CreatedAt.
const CreatedAtLayout = "2006-01-02 15:04"

const DefaultCategory = "General"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts the three known levels, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Label is the capitalized name shown on buttons.
func (p Priority) Label() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

type Task struct {
	ID        int64    `json:"id"`
	Content   string   `json:"content"`
	Completed bool     `json:"completed"`
	CreatedAt string   `json:"created_at"`
	Priority  Priority `json:"priority"`
	Category  string   `json:"category"`
}

// Draft is the user input a task is created from. Empty Priority and Category
// fall back to medium and General.
type Draft struct {
	Content  string
	Priority Priority
	Category string
}

func (d Draft) build(id int64, now time.Time) Task {
	p := d.Priority
	if p == "" {
		p = PriorityMedium
	}
	c := d.Category
	if c == "" {
		c = DefaultCategory
	}
	return Task{
		ID:        id,
		Content:   d.Content,
		CreatedAt: now.Format(CreatedAtLayout),
		Priority:  p,
		Category:  c,
	}
}

// SeedTasks returns the example collection written on first load.
func SeedTasks(now time.Time) []Task {
	ts := now.Format(CreatedAtLayout)
	return []Task{
		{ID: 1, Content: "Welcome to Task Manager! Add your tasks here.", CreatedAt: ts, Priority: PriorityMedium, Category: "General"},
		{ID: 2, Content: "Try marking a task as complete", CreatedAt: ts, Priority: PriorityHigh, Category: "Tutorial"},
		{ID: 3, Content: "Delete a task you no longer need", CreatedAt: ts, Priority: PriorityLow, Category: "Tutorial"},
	}
}
