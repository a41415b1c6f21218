// Package session holds the client side authentication state: the bearer
// token, the logged in user and an unfinished signup form. Values survive
// restarts through a Storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/harlequingg/task-manager/internal/client"
)

const (
	keyToken      = "token"
	keyUser       = "userData"
	keySignupData = "signupData"
)

// SignupData is the signup form kept between requesting an OTP and
// verifying it. The password confirmation is checked before the draft is
// stored and is not kept.
type SignupData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type Session struct {
	storage Storage

	mu     sync.RWMutex
	token  string
	user   *client.User
	signup *SignupData
}

func New(storage Storage) *Session {
	return &Session{storage: storage}
}

// Rehydrate loads every persisted value. Missing keys leave the matching
// field empty.
func (s *Session) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var token string
	if err := s.read(keyToken, &token); err != nil {
		return err
	}
	var user client.User
	hasUser, err := s.readOptional(keyUser, &user)
	if err != nil {
		return err
	}
	var signup SignupData
	hasSignup, err := s.readOptional(keySignupData, &signup)
	if err != nil {
		return err
	}

	s.token = token
	s.user = nil
	if hasUser {
		s.user = &user
	}
	s.signup = nil
	if hasSignup {
		s.signup = &signup
	}
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SignupData() *SignupData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signup == nil {
		return nil
	}
	d := *s.signup
	return &d
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(keyToken, token); err != nil {
		return err
	}
	s.token = token
	return nil
}

func (s *Session) SetUser(u client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(keyUser, u); err != nil {
		return err
	}
	s.user = &u
	return nil
}

func (s *Session) SetSignupData(d SignupData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(keySignupData, d); err != nil {
		return err
	}
	s.signup = &d
	return nil
}

func (s *Session) ClearSignupData() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Remove(keySignupData); err != nil {
		return err
	}
	s.signup = nil
	return nil
}

// Logout clears every field and removes the stored entries.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := errors.Join(
		s.storage.Remove(keyToken),
		s.storage.Remove(keyUser),
		s.storage.Remove(keySignupData),
	)
	s.token = ""
	s.user = nil
	s.signup = nil
	return err
}

func (s *Session) read(key string, dst any) error {
	_, err := s.readOptional(key, dst)
	return err
}

func (s *Session) readOptional(key string, dst any) (bool, error) {
	raw, err := s.storage.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Session) write(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.storage.Set(key, raw)
}
