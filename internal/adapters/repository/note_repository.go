package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/ports"
)

const noteColumns = `id, title, content, created_at, modified_at`

// NoteRepositoryImpl implements the NoteRepository interface
type NoteRepositoryImpl struct {
	db sqlx.ExtContext
	mu *sync.RWMutex
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sqlx.DB) ports.NoteRepository {
	return &NoteRepositoryImpl{db: db, mu: &sync.RWMutex{}}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entities.Note) error {
	query := `
		INSERT INTO notes (title, content, created_at, modified_at)
		VALUES (?, ?, ?, ?)`

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := insertReturningID(ctx, r.db, query, note.Title, note.Content, note.CreatedAt.UTC(), note.ModifiedAt.UTC())
	if err != nil {
		return entities.NewStorageError("create note", err)
	}

	note.ID = id
	return nil
}

func (r *NoteRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`

	r.mu.RLock()
	defer r.mu.RUnlock()

	var note entities.Note
	err := sqlx.GetContext(ctx, r.db, &note, r.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNoteNotFound
		}
		return nil, entities.NewStorageError("get note by id", err)
	}

	return &note, nil
}

func (r *NoteRepositoryImpl) Update(ctx context.Context, note *entities.Note) error {
	query := `
		UPDATE notes
		SET title = ?, content = ?, modified_at = ?
		WHERE id = ?`

	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, query, note.Title, note.Content, note.ModifiedAt.UTC(), note.ID)
	if err != nil {
		return entities.NewStorageError("update note", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowsAffected, err := execAffected(ctx, r.db, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return entities.NewStorageError("delete note", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNoteNotFound
	}

	return nil
}

// List filters in Go: SQL LOWER() folds ASCII only and notes are mostly Cyrillic.
func (r *NoteRepositoryImpl) List(ctx context.Context, filter ports.NoteFilter) ([]*entities.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes ORDER BY modified_at DESC, id DESC`

	r.mu.RLock()
	var all []*entities.Note
	err := sqlx.SelectContext(ctx, r.db, &all, query)
	r.mu.RUnlock()
	if err != nil {
		return nil, entities.NewStorageError("list notes", fmt.Errorf("select: %w", err))
	}

	notes := make([]*entities.Note, 0, len(all))
	for _, note := range all {
		if filter.Search != nil && !note.Matches(*filter.Search) {
			continue
		}
		notes = append(notes, note)
		if filter.Limit > 0 && len(notes) == filter.Limit {
			break
		}
	}

	return notes, nil
}
