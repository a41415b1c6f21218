package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          uuid PRIMARY KEY,
	title       text NOT NULL CHECK (title <> ''),
	description text NOT NULL DEFAULT '',
	due_date    date NOT NULL,
	status      text NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'In Progress', 'Completed')),
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            uuid PRIMARY KEY,
	created_at    timestamptz NOT NULL DEFAULT now(),
	first_name    text NOT NULL,
	last_name     text NOT NULL,
	email         text NOT NULL UNIQUE,
	password_hash bytea NOT NULL,
	image         text NOT NULL DEFAULT ''
);`

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

type postgresStorage struct {
	db *sql.DB
}

func newPostgresStorage(db *sql.DB) *postgresStorage {
	return &postgresStorage{db: db}
}

func (s *postgresStorage) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, postgresSchema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *postgresStorage) close(_ context.Context) error {
	return s.db.Close()
}

// translatePQError maps constraint failures onto the storage sentinels.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return errDuplicateEmail
	case "23502", "23514", "22007", "22008", "22P02":
		return fmt.Errorf("%w: %s", errInvalidRecord, pqErr.Message)
	}
	return err
}

func (s *postgresStorage) insertTask(ctx context.Context, t *task) error {
	query := `INSERT INTO tasks (id, title, description, due_date, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	id := uuid.NewString()
	row := s.db.QueryRowContext(ctx, query, id, t.Title, t.Description, t.DueDate.Time, string(t.Status))
	err := row.Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return translatePQError(err)
	}
	t.ID = id
	return nil
}

func (s *postgresStorage) listTasks(ctx context.Context) ([]task, error) {
	query := `SELECT id, title, description, due_date, status, created_at, updated_at
			  FROM tasks
			  ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *postgresStorage) getTask(ctx context.Context, id string) (*task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errRecordNotFound
	}
	query := `SELECT id, title, description, due_date, status, created_at, updated_at
			  FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t task
	err := scanTask(s.db.QueryRowContext(ctx, query, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *postgresStorage) updateTask(ctx context.Context, t *task) error {
	if _, err := uuid.Parse(t.ID); err != nil {
		return errRecordNotFound
	}
	query := `UPDATE tasks SET title = $1, description = $2, due_date = $3,
			  status = COALESCE(NULLIF($4, ''), status), updated_at = now()
			  WHERE id = $5
			  RETURNING status, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var status string
	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.DueDate.Time, string(t.Status), t.ID)
	err := row.Scan(&status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errRecordNotFound
		}
		return translatePQError(err)
	}
	t.Status = taskStatus(status)
	return nil
}

func (s *postgresStorage) deleteTask(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errRecordNotFound
	}
	query := `DELETE FROM tasks
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, t *task) error {
	var (
		due    time.Time
		status string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &due, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	t.DueDate = newDate(due)
	t.Status = taskStatus(status)
	return nil
}

func (s *postgresStorage) insertUser(ctx context.Context, u *user) error {
	query := `INSERT INTO users (id, first_name, last_name, email, password_hash, image)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING created_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	id := uuid.NewString()
	row := s.db.QueryRowContext(ctx, query, id, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Image)
	err := row.Scan(&u.CreatedAt)
	if err != nil {
		return translatePQError(err)
	}
	u.ID = id
	return nil
}

func (s *postgresStorage) getUserByEmail(ctx context.Context, email string) (*user, error) {
	query := `SELECT id, created_at, first_name, last_name, email, password_hash, image
			  FROM users
			  WHERE email = $1`
	return s.getUser(ctx, query, email)
}

func (s *postgresStorage) getUserByID(ctx context.Context, id string) (*user, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errRecordNotFound
	}
	query := `SELECT id, created_at, first_name, last_name, email, password_hash, image
			  FROM users
			  WHERE id = $1`
	return s.getUser(ctx, query, id)
}

func (s *postgresStorage) getUser(ctx context.Context, query string, arg any) (*user, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, arg)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Image)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errRecordNotFound
		default:
			return nil, err
		}
	}
	return &u, nil
}
