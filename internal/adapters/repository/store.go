package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/ports"
)

// repositories binds the five entity repositories to one query target,
// either the connection pool or a single transaction.
type repositories struct {
	notes    *NoteRepositoryImpl
	tasks    *TaskRepositoryImpl
	events   *EventRepositoryImpl
	chat     *ChatRepositoryImpl
	pomodoro *PomodoroRepositoryImpl
}

func newRepositories(db sqlx.ExtContext, mu *sync.RWMutex) repositories {
	return repositories{
		notes:    &NoteRepositoryImpl{db: db, mu: mu},
		tasks:    &TaskRepositoryImpl{db: db, mu: mu},
		events:   &EventRepositoryImpl{db: db, mu: mu},
		chat:     &ChatRepositoryImpl{db: db, mu: mu},
		pomodoro: &PomodoroRepositoryImpl{db: db, mu: mu},
	}
}

func (r repositories) Notes() ports.NoteRepository        { return r.notes }
func (r repositories) Tasks() ports.TaskRepository        { return r.tasks }
func (r repositories) Events() ports.EventRepository      { return r.events }
func (r repositories) Chat() ports.ChatRepository         { return r.chat }
func (r repositories) Pomodoro() ports.PomodoroRepository { return r.pomodoro }

// Store is the RecordStore backed by one sqlx connection pool.
// Writes are serialized with mu; reads share it.
type Store struct {
	repositories
	db *database.DB
	mu *sync.RWMutex
}

// NewStore creates the repositories over a shared lock
func NewStore(db *database.DB) *Store {
	mu := &sync.RWMutex{}
	return &Store{
		repositories: newRepositories(db.DB, mu),
		db:           db,
		mu:           mu,
	}
}

var _ ports.RecordStore = (*Store)(nil)

// WithinTransaction runs fn against repositories bound to one transaction.
// The store's write lock is held until it commits or rolls back.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		// The outer lock already excludes other callers
		return fn(&txStore{repositories: newRepositories(tx, &sync.RWMutex{})})
	})
}

// txStore is the view of the store inside WithinTransaction
type txStore struct {
	repositories
}

// WithinTransaction joins the transaction already in progress
func (t *txStore) WithinTransaction(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	return fn(t)
}

// insertReturningID runs an INSERT and returns the generated key.
// Both sqlite and postgres accept RETURNING.
func insertReturningID(ctx context.Context, db sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// execAffected runs a statement and reports how many rows it touched
func execAffected(ctx context.Context, db sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	result, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Timestamps are stored as text and ordered lexically, so every value is
// written in UTC.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
