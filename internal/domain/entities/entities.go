package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidRole       = errors.New("invalid chat role")
	ErrInvalidTaskFilter = errors.New("invalid task filter")
	ErrInvalidInput      = errors.New("invalid input")
)

// Layouts used for calendar values stored as text
const (
	DateLayout        = "2006-01-02"
	ClockLayout       = "15:04"
	SessionTimeLayout = "15:04:05"
)

// Enums and types
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// TaskFilter selects which tasks a listing returns
type TaskFilter string

const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterActive    TaskFilter = "active"
	TaskFilterCompleted TaskFilter = "completed"
)

// Note represents a free-form note
type Note struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created" db:"created_at"`
	ModifiedAt time.Time `json:"modified" db:"modified_at"`
}

// Task represents a todo item
type Task struct {
	ID        int64     `json:"id" db:"id"`
	Text      string    `json:"text" db:"text" validate:"required"`
	Completed bool      `json:"completed" db:"completed"`
	Priority  Priority  `json:"priority" db:"priority" validate:"required,oneof=High Medium Low"`
	CreatedAt time.Time `json:"created" db:"created_at"`
}

// Event represents a calendar entry on a single day
type Event struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title" validate:"required"`
	Description *string    `json:"description,omitempty" db:"description"`
	Date        string     `json:"date" db:"event_date" validate:"required,datetime=2006-01-02"`
	Time        *string    `json:"time,omitempty" db:"event_time" validate:"omitempty,len=5,datetime=15:04"`
	CreatedAt   time.Time  `json:"created" db:"created_at"`
	ModifiedAt  *time.Time `json:"modified,omitempty" db:"modified_at"`
}

// ChatMessage is one turn of the assistant conversation
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	Role      ChatRole  `json:"role" db:"role" validate:"required,oneof=user assistant system"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"time" db:"created_at"`
}

// PomodoroSession records one completed focus period
type PomodoroSession struct {
	ID              int64     `json:"id" db:"id"`
	Date            string    `json:"date" db:"session_date" validate:"required,datetime=2006-01-02"`
	Time            string    `json:"time" db:"session_time" validate:"required,datetime=15:04:05"`
	DurationSeconds int       `json:"duration" db:"duration_seconds" validate:"gt=0"`
	CreatedAt       time.Time `json:"created" db:"created_at"`
}

// PomodoroStats summarizes the recorded focus sessions
type PomodoroStats struct {
	CompletedCount int                `json:"completed_pomodoros"`
	TotalDuration  int                `json:"total_focus_time"`
	RecentSessions []*PomodoroSession `json:"recent_sessions"`
}

// TaskStats counts tasks by completion state
type TaskStats struct {
	Active    int `json:"active" db:"active"`
	Completed int `json:"completed" db:"completed"`
}

// Business logic methods for Note
func (n *Note) Touch(now time.Time) {
	if now.Before(n.CreatedAt) {
		now = n.CreatedAt
	}
	n.ModifiedAt = now
}

func (n *Note) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Content), term)
}

// Business logic methods for Task
func (t *Task) Toggle() {
	t.Completed = !t.Completed
}

// Business logic methods for Event
func (e *Event) HasTime() bool {
	return e.Time != nil && *e.Time != ""
}

// Business logic methods for PomodoroSession
func (s *PomodoroSession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Utility methods
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank orders priorities for listing: High first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 99
	}
}

// ParsePriority accepts any casing ("medium", "HIGH"); empty input means Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

func (r ChatRole) IsValid() bool {
	switch r {
	case ChatRoleUser, ChatRoleAssistant, ChatRoleSystem:
		return true
	default:
		return false
	}
}

func ParseChatRole(s string) (ChatRole, error) {
	role := ChatRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return role, nil
}

func (f TaskFilter) IsValid() bool {
	switch f {
	case TaskFilterAll, TaskFilterActive, TaskFilterCompleted:
		return true
	default:
		return false
	}
}

// ParseTaskFilter maps empty input to TaskFilterAll.
func ParseTaskFilter(s string) (TaskFilter, error) {
	f := TaskFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return TaskFilterAll, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskFilter, s)
	}
	return f, nil
}

// NormalizeClock parses a time of day and returns it zero-padded as HH:MM,
// so "9:05" becomes "09:05" and stored times compare correctly as text.
func NormalizeClock(s string) (string, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, s)
	}
	return t.Format(ClockLayout), nil
}

// StorageError reports an I/O, lock or driver failure in the record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or a domain sentinel.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNoteNotFound, ErrTaskNotFound, ErrEventNotFound} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err came from the storage layer.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ImportError reports a legacy document that could not be imported.
type ImportError struct {
	File string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.File, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ErrMissingCredential means the cloud backend was selected without an API key.
var ErrMissingCredential = errors.New("cloud api key is not configured")

// NetworkError reports a chat request that never produced an HTTP response:
// refused connection, DNS failure or timeout.
type NetworkError struct {
	Backend string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a non-success status or an unreadable reply envelope.
type ProtocolError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s API error: status code %d - %s", e.Backend, e.StatusCode, e.Message)
}
