package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type taskStatus string

const (
	statusPending    taskStatus = "Pending"
	statusInProgress taskStatus = "In Progress"
	statusCompleted  taskStatus = "Completed"
)

var taskStatuses = []taskStatus{statusPending, statusInProgress, statusCompleted}

func (s taskStatus) valid() bool {
	for _, v := range taskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const dateLayout = "2006-01-02"

// date is a calendar date without a time of day, always held at UTC midnight.
type date struct {
	time.Time
}

func parseDate(s string) (date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return date{}, fmt.Errorf("invalid date %q", s)
	}
	return newDate(t), nil
}

func newDate(t time.Time) date {
	y, m, d := t.Date()
	return date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("date must be a string")
	}
	if s == "" {
		*d = date{}
		return nil
	}
	parsed, err := parseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     date       `json:"dueDate"`
	Status      taskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type user struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Image        string    `json:"image"`
}

type otpRecord struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (o otpRecord) expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
