package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

const queryTimeout = 5 * time.Second

var (
	errRecordNotFound = errors.New("record not found")
	errDuplicateEmail = errors.New("duplicate email")
	errInvalidRecord  = errors.New("record rejected by store")
)

type taskStore interface {
	insertTask(ctx context.Context, t *task) error
	listTasks(ctx context.Context) ([]task, error)
	getTask(ctx context.Context, id string) (*task, error)
	// updateTask keeps the stored status when t.Status is empty and
	// writes the resulting status back into t.
	updateTask(ctx context.Context, t *task) error
	deleteTask(ctx context.Context, id string) error
}

type userStore interface {
	insertUser(ctx context.Context, u *user) error
	getUserByEmail(ctx context.Context, email string) (*user, error)
	getUserByID(ctx context.Context, id string) (*user, error)
}

type storage interface {
	taskStore
	userStore
	close(ctx context.Context) error
}

// openStorage picks the backend from the scheme of the connection string.
func openStorage(ctx context.Context, cfg config) (storage, error) {
	u, err := url.Parse(cfg.db.dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		s := newPostgresStorage(db)
		if err := s.migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case "mongodb", "mongodb+srv":
		return openMongoStorage(ctx, cfg.db.dsn, cfg.db.name)
	default:
		return nil, fmt.Errorf("unsupported db dsn scheme %q", u.Scheme)
	}
}
