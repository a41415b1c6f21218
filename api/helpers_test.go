package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memoryStorage is an in-process storage used by the service and handler tests.
type memoryStorage struct {
	mu     sync.Mutex
	seq    int
	tasks  []task
	users  map[string]*user
	writes int
	reads  int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{users: make(map[string]*user)}
}

func (s *memoryStorage) nextID() string {
	s.seq++
	return fmt.Sprintf("%024x", s.seq)
}

func (s *memoryStorage) insertTask(_ context.Context, t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	now := time.Now().UTC()
	t.ID = s.nextID()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *memoryStorage) listTasks(_ context.Context) ([]task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	out := make([]task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *memoryStorage) getTask(_ context.Context, id string) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	for _, t := range s.tasks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, errRecordNotFound
}

func (s *memoryStorage) updateTask(_ context.Context, t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			if t.Status == "" {
				t.Status = s.tasks[i].Status
			}
			t.CreatedAt = s.tasks[i].CreatedAt
			t.UpdatedAt = time.Now().UTC()
			s.tasks[i] = *t
			return nil
		}
	}
	return errRecordNotFound
}

func (s *memoryStorage) deleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return errRecordNotFound
}

func (s *memoryStorage) insertUser(_ context.Context, u *user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if _, ok := s.users[u.Email]; ok {
		return errDuplicateEmail
	}
	u.ID = s.nextID()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *memoryStorage) getUserByEmail(_ context.Context, email string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	u, ok := s.users[email]
	if !ok {
		return nil, errRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStorage) getUserByID(_ context.Context, id string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errRecordNotFound
}

func (s *memoryStorage) close(context.Context) error { return nil }

func (s *memoryStorage) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memoryStorage) accessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads + s.writes
}

type sentOTP struct {
	to   string
	code string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeSender) sendOTP(to, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentOTP{to: to, code: code})
	return nil
}

func (f *fakeSender) last() sentOTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentOTP{}
	}
	return f.sent[len(f.sent)-1]
}

type testEnv struct {
	app    *application
	store  *memoryStorage
	otps   *memoryOTPStore
	sender *fakeSender
	tokens *tokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemoryStorage()
	otps := newMemoryOTPStore()
	sender := &fakeSender{}
	tokens := newTokenManager("test-secret", time.Hour)
	logger := zap.NewNop()

	auth := newAuthService(store, otps, sender, tokens, 5*time.Minute, logger)
	auth.passwordCost = bcrypt.MinCost

	var cfg config
	cfg.env = "testing"
	cfg.cors.trustedOrigins = []string{"*"}

	return &testEnv{
		app: &application{
			config: cfg,
			logger: logger,
			tasks:  newTaskService(store, logger),
			auth:   auth,
		},
		store:  store,
		otps:   otps,
		sender: sender,
		tokens: tokens,
	}
}
