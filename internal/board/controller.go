package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/s1natex/taskboard-GO/internal/tasks"
)

// Controller runs board actions against a Store and reports each outcome as a
// Notice. Validation failures produce no notice at all.
type Controller struct {
	store  tasks.Store
	prefs  *Preferences
	logger *slog.Logger
	now    func() time.Time
}

func NewController(store tasks.Store, prefs *Preferences, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
	}
}

// Page lists the tasks for state and builds the board around them. A failed
// listing still yields a page, empty and carrying an error notice.
func (c *Controller) Page(ctx context.Context, state ViewState, notice Notice) Page {
	in := PageInput{Notice: notice, Now: c.now()}

	list, err := c.store.List(ctx, state.Query())
	if err != nil {
		c.logger.ErrorContext(ctx, "board_list_failed", slog.String("error", err.Error()))
		in.Notice = Notice{Kind: NoticeError, Message: "Error fetching tasks"}
	}
	in.Tasks = list

	if cats, err := c.store.Categories(ctx); err != nil {
		c.logger.WarnContext(ctx, "board_categories_failed", slog.String("error", err.Error()))
	} else {
		in.Categories = cats
	}

	if c.prefs != nil {
		dark, err := c.prefs.DarkMode(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "board_theme_failed", slog.String("error", err.Error()))
		}
		in.DarkMode = dark
	}
	return BuildPage(state, in)
}

// Task returns the view of one task, as it would appear in a full render.
func (c *Controller) Task(ctx context.Context, id int64) (TaskView, error) {
	t, err := tasks.Find(ctx, c.store, id)
	if err != nil {
		return TaskView{}, err
	}
	return NewTaskView(t), nil
}

func (c *Controller) Add(ctx context.Context, d tasks.Draft) Notice {
	err := c.store.Add(ctx, d)
	switch {
	case errors.Is(err, tasks.ErrContentRequired):
		return Notice{}
	case errors.Is(err, tasks.ErrInvalidPriority):
		return Notice{Kind: NoticeError, Message: "Invalid priority"}
	case err != nil:
		return c.failed(ctx, "add", err, "Error adding task")
	}
	return Notice{Kind: NoticeSuccess, Message: "Task added successfully"}
}

func (c *Controller) Toggle(ctx context.Context, id int64) Notice {
	if err := c.store.Toggle(ctx, id); err != nil {
		return c.failed(ctx, "toggle", err, "Error updating task")
	}
	t, err := tasks.Find(ctx, c.store, id)
	if err != nil {
		return c.failed(ctx, "toggle", err, "Error updating task")
	}
	if t.Completed {
		return Notice{Kind: NoticeSuccess, Message: "Task completed!"}
	}
	return Notice{Kind: NoticeInfo, Message: "Task marked as active"}
}

func (c *Controller) Remove(ctx context.Context, id int64) Notice {
	if err := c.store.Remove(ctx, id); err != nil {
		return c.failed(ctx, "remove", err, "Error deleting task")
	}
	return Notice{Kind: NoticeSuccess, Message: "Task deleted successfully"}
}

func (c *Controller) SetPriority(ctx context.Context, id int64, p tasks.Priority) Notice {
	if err := c.store.SetPriority(ctx, id, p); err != nil {
		return c.failed(ctx, "set_priority", err, "Error updating priority")
	}
	return Notice{Kind: NoticeSuccess, Message: fmt.Sprintf("Priority updated to %s", p)}
}

func (c *Controller) SetCategory(ctx context.Context, id int64, category string) Notice {
	if err := c.store.SetCategory(ctx, id, category); err != nil {
		return c.failed(ctx, "set_category", err, "Error updating category")
	}
	return Notice{Kind: NoticeSuccess, Message: fmt.Sprintf("Category updated to %s", category)}
}

func (c *Controller) SetDarkMode(ctx context.Context, on bool) Notice {
	if c.prefs == nil {
		return Notice{}
	}
	if err := c.prefs.SetDarkMode(ctx, on); err != nil {
		return c.failed(ctx, "set_dark_mode", err, "Error saving theme")
	}
	return Notice{}
}

func (c *Controller) failed(ctx context.Context, op string, err error, msg string) Notice {
	c.logger.WarnContext(ctx, "board_action_failed", slog.String("op", op), slog.String("error", err.Error()))
	return Notice{Kind: NoticeError, Message: msg}
}
