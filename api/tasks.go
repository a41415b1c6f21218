package main

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

type taskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

// toTask checks the input against the task schema. An empty status is
// replaced by defaultStatus, which may itself be empty to mean "leave the
// stored status alone".
func (in taskInput) toTask(defaultStatus taskStatus) (task, error) {
	t := task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      taskStatus(strings.TrimSpace(in.Status)),
	}
	if t.Status == "" {
		t.Status = defaultStatus
	}

	v := newValidator()
	v.checkCond(t.Title != "", "title", "must be provided")
	v.checkCond(strings.TrimSpace(in.DueDate) != "", "dueDate", "must be provided")
	if strings.TrimSpace(in.DueDate) != "" {
		d, err := parseDate(in.DueDate)
		v.checkCond(err == nil, "dueDate", "must be a date formatted as YYYY-MM-DD")
		t.DueDate = d
	}
	v.checkCond(t.Status == "" || t.Status.valid(), "status", `must be one of "Pending", "In Progress", "Completed"`)
	if v.hasErrors() {
		return task{}, v.toError()
	}
	return t, nil
}

type taskService struct {
	store  taskStore
	logger *zap.Logger
}

func newTaskService(store taskStore, logger *zap.Logger) *taskService {
	return &taskService{store: store, logger: logger}
}

func (s *taskService) create(ctx context.Context, in taskInput) (*task, error) {
	t, err := in.toTask(statusPending)
	if err != nil {
		return nil, err
	}
	if err := s.store.insertTask(ctx, &t); err != nil {
		return nil, s.storeError(err, "create task")
	}
	return &t, nil
}

func (s *taskService) list(ctx context.Context) ([]task, error) {
	tasks, err := s.store.listTasks(ctx)
	if err != nil {
		return nil, s.storeError(err, "list tasks")
	}
	return tasks, nil
}

func (s *taskService) get(ctx context.Context, id string) (*task, error) {
	t, err := s.store.getTask(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "get task")
	}
	return t, nil
}

// update replaces title, description and dueDate. The status is replaced only
// when one is given.
func (s *taskService) update(ctx context.Context, id string, in taskInput) (*task, error) {
	t, err := in.toTask("")
	if err != nil {
		return nil, err
	}
	t.ID = id
	if err := s.store.updateTask(ctx, &t); err != nil {
		return nil, s.storeError(err, "update task")
	}
	return &t, nil
}

func (s *taskService) delete(ctx context.Context, id string) error {
	if err := s.store.deleteTask(ctx, id); err != nil {
		return s.storeError(err, "delete task")
	}
	return nil
}

func (s *taskService) storeError(err error, op string) error {
	switch {
	case errors.Is(err, errRecordNotFound):
		return newServiceError(errNotFound, "Task not found")
	case errors.Is(err, errInvalidRecord):
		return newServiceError(errValidation, err.Error())
	default:
		s.logger.Error("task store failure", zap.String("op", op), zap.Error(err))
		return err
	}
}
