package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorageContract runs the behaviour every storage backend has to share.
func testStorageContract(t *testing.T, s storage) {
	ctx := context.Background()
	due, err := parseDate("2024-01-10")
	require.NoError(t, err)

	t.Run("task lifecycle", func(t *testing.T) {
		tk := task{Title: "Write spec", Description: "draft v1", DueDate: due, Status: statusPending}
		require.NoError(t, s.insertTask(ctx, &tk))
		require.NotEmpty(t, tk.ID)
		assert.False(t, tk.CreatedAt.IsZero())

		got, err := s.getTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, "Write spec", got.Title)
		assert.Equal(t, "2024-01-10", got.DueDate.String())

		tk.Status = statusCompleted
		tk.Title = "Write spec v2"
		require.NoError(t, s.updateTask(ctx, &tk))
		got, err = s.getTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, statusCompleted, got.Status)
		assert.Equal(t, "Write spec v2", got.Title)

		keep := task{ID: tk.ID, Title: "Write spec v3", DueDate: due}
		require.NoError(t, s.updateTask(ctx, &keep))
		assert.Equal(t, statusCompleted, keep.Status)
		got, err = s.getTask(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, statusCompleted, got.Status)
		assert.Equal(t, "Write spec v3", got.Title)

		tasks, err := s.listTasks(ctx)
		require.NoError(t, err)
		assert.Contains(t, taskIDs(tasks), tk.ID)

		require.NoError(t, s.deleteTask(ctx, tk.ID))
		_, err = s.getTask(ctx, tk.ID)
		require.ErrorIs(t, err, errRecordNotFound)
		require.ErrorIs(t, s.deleteTask(ctx, tk.ID), errRecordNotFound)

		missing := task{ID: tk.ID, Title: "x", DueDate: due, Status: statusPending}
		require.ErrorIs(t, s.updateTask(ctx, &missing), errRecordNotFound)
	})

	t.Run("malformed ids do not resolve", func(t *testing.T) {
		_, err := s.getTask(ctx, "not-an-id")
		require.ErrorIs(t, err, errRecordNotFound)
		require.ErrorIs(t, s.deleteTask(ctx, "not-an-id"), errRecordNotFound)
		_, err = s.getUserByID(ctx, "not-an-id")
		require.ErrorIs(t, err, errRecordNotFound)
	})

	t.Run("users", func(t *testing.T) {
		email := fmt.Sprintf("user-%d@example.com", time.Now().UnixNano())
		u := user{FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: []byte("hash"), Image: "img"}
		require.NoError(t, s.insertUser(ctx, &u))
		require.NotEmpty(t, u.ID)

		byEmail, err := s.getUserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, []byte("hash"), byEmail.PasswordHash)

		byID, err := s.getUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, email, byID.Email)

		dup := user{FirstName: "A", LastName: "L", Email: email, PasswordHash: []byte("x")}
		require.ErrorIs(t, s.insertUser(ctx, &dup), errDuplicateEmail)

		_, err = s.getUserByEmail(ctx, "nobody-"+email)
		require.ErrorIs(t, err, errRecordNotFound)
	})
}

func taskIDs(tasks []task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestMemoryStorageContract(t *testing.T) {
	testStorageContract(t, newMemoryStorage())
}

func TestPostgresStorage(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	s := newPostgresStorage(db)
	defer s.close(context.Background())
	require.NoError(t, s.migrate(context.Background()))

	testStorageContract(t, s)

	t.Run("check constraint", func(t *testing.T) {
		due, _ := parseDate("2024-01-10")
		bad := task{Title: "t", DueDate: due, Status: "Done"}
		require.ErrorIs(t, s.insertTask(context.Background(), &bad), errInvalidRecord)
	})
}

func TestMongoStorage(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := openMongoStorage(ctx, uri, "taskmanager_test")
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	defer func() {
		_ = s.tasks.Database().Drop(ctx)
		_ = s.close(ctx)
	}()

	testStorageContract(t, s)
}
