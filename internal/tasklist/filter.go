package tasklist

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harlequingg/task-manager/internal/client"
)

const (
	DefaultPageSize = 6
	StatusAll       = "All"
)

// Filter keeps tasks whose title or description contains query, ignoring
// case, and whose status equals status. StatusAll or "" match any status.
func Filter(tasks []client.Task, query, status string) []client.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]client.Task, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && status != StatusAll && t.Status != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Page is one slice of a filtered list.
type Page struct {
	Items      []client.Task
	Number     int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// TotalPages is ceil(n/size). It is at least 1 so an empty list still has a
// page to show.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Paginate returns page number (1-based) of tasks, clamping number into
// range.
func Paginate(tasks []client.Task, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := TotalPages(len(tasks), size)
	number = clamp(number, 1, total)

	start := (number - 1) * size
	end := min(start+size, len(tasks))
	return Page{
		Items:      tasks[start:end],
		Number:     number,
		TotalPages: total,
		HasPrev:    number > 1,
		HasNext:    number < total,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Form is the create and edit form.
type Form struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

var ErrInvalidForm = errors.New("invalid form")

// FormError lists the fields that failed validation.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

func (e *FormError) Unwrap() error {
	return ErrInvalidForm
}

// Validate checks the fields the form requires before anything is sent.
func (f Form) Validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(f.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(f.Description) == "" {
		fields["description"] = "is required"
	}
	if strings.TrimSpace(f.DueDate) == "" {
		fields["dueDate"] = "is required"
	}
	if f.Status != "" {
		if _, ok := statusStyles[f.Status]; !ok {
			fields["status"] = "must be one of Pending, In Progress, Completed"
		}
	}
	if len(fields) > 0 {
		return &FormError{Fields: fields}
	}
	return nil
}

func (f Form) Input() client.TaskInput {
	return client.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		DueDate:     strings.TrimSpace(f.DueDate),
		Status:      f.Status,
	}
}

// FormFromTask prefills the edit form.
func FormFromTask(t client.Task) Form {
	return Form{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
	}
}
