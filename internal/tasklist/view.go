// Package tasklist is the client side task list: search, status filter,
// pagination and the create and edit forms.
package tasklist

import (
	"context"

	"github.com/harlequingg/task-manager/internal/client"
)

// API is the part of the client used by the view.
type API interface {
	ListTasks(ctx context.Context) ([]client.Task, error)
	CreateTask(ctx context.Context, in client.TaskInput) (*client.Task, error)
	UpdateTask(ctx context.Context, id string, in client.TaskInput) (*client.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// View holds the fetched list and the current search, filter and page. Every
// successful mutation refetches the whole list. A failed call leaves the
// view as it was.
type View struct {
	api      API
	tasks    []client.Task
	query    string
	status   string
	pageSize int
	page     int
}

func NewView(api API) *View {
	return &View{
		api:      api,
		status:   StatusAll,
		pageSize: DefaultPageSize,
		page:     1,
	}
}

func (v *View) Refresh(ctx context.Context) error {
	tasks, err := v.api.ListTasks(ctx)
	if err != nil {
		return err
	}
	v.tasks = tasks
	v.clampPage()
	return nil
}

func (v *View) SetQuery(q string) {
	v.query = q
	v.clampPage()
}

func (v *View) SetStatus(status string) {
	if status == "" {
		status = StatusAll
	}
	v.status = status
	v.clampPage()
}

func (v *View) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	v.pageSize = size
	v.clampPage()
}

// GoTo moves to page n and reports whether n was in range.
func (v *View) GoTo(n int) bool {
	if n < 1 || n > v.totalPages() {
		return false
	}
	v.page = n
	return true
}

func (v *View) Next() bool {
	return v.GoTo(v.page + 1)
}

func (v *View) Prev() bool {
	return v.GoTo(v.page - 1)
}

func (v *View) Current() Page {
	return Paginate(v.filtered(), v.page, v.pageSize)
}

func (v *View) Find(id string) (client.Task, bool) {
	for _, t := range v.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return client.Task{}, false
}

func (v *View) Create(ctx context.Context, f Form) (*client.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	t, err := v.api.CreateTask(ctx, f.Input())
	if err != nil {
		return nil, err
	}
	return t, v.Refresh(ctx)
}

func (v *View) Update(ctx context.Context, id string, f Form) (*client.Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	t, err := v.api.UpdateTask(ctx, id, f.Input())
	if err != nil {
		return nil, err
	}
	return t, v.Refresh(ctx)
}

func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.api.DeleteTask(ctx, id); err != nil {
		return err
	}
	return v.Refresh(ctx)
}

func (v *View) filtered() []client.Task {
	return Filter(v.tasks, v.query, v.status)
}

func (v *View) totalPages() int {
	return TotalPages(len(v.filtered()), v.pageSize)
}

func (v *View) clampPage() {
	v.page = clamp(v.page, 1, v.totalPages())
}
