package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

// NoteService handles note-related operations
type NoteService struct {
	noteRepo ports.NoteRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo ports.NoteRepository, logger *logger.Logger, m *metrics.Metrics) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		logger:   logger.WithComponent("notes"),
		metrics:  m,
		now:      time.Now,
	}
}

// AddNote stores a new note; created and modified are both now
func (s *NoteService) AddNote(ctx context.Context, title, content string) (int64, error) {
	now := s.now()
	note := &entities.Note{
		Title:      title,
		Content:    content,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err := s.noteRepo.Create(ctx, note)
	s.metrics.ObserveStore("note", "create", err)
	if err != nil {
		s.logger.Errorw("Failed to add note", "error", err)
		return 0, fmt.Errorf("failed to add note: %w", err)
	}

	s.logger.Infow("Note added", "note_id", note.ID)
	return note.ID, nil
}

// GetNotes lists notes, newest change first. A blank search returns all.
func (s *NoteService) GetNotes(ctx context.Context, search string) ([]*entities.Note, error) {
	filter := ports.NoteFilter{}
	if term := strings.TrimSpace(search); term != "" {
		filter.Search = &term
	}

	notes, err := s.noteRepo.List(ctx, filter)
	s.metrics.ObserveStore("note", "list", err)
	if err != nil {
		s.logger.Errorw("Failed to list notes", "error", err)
		return []*entities.Note{}, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}

// GetNote retrieves a note by ID
func (s *NoteService) GetNote(ctx context.Context, id int64) (*entities.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, nil
}

// UpdateNote replaces title and content; false when the note does not exist
func (s *NoteService) UpdateNote(ctx context.Context, id int64, title, content string) (bool, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if errors.Is(err, entities.ErrNoteNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to load note", "note_id", id, "error", err)
		return false, fmt.Errorf("failed to update note: %w", err)
	}

	note.Title = title
	note.Content = content
	note.Touch(s.now())

	err = s.noteRepo.Update(ctx, note)
	s.metrics.ObserveStore("note", "update", err)
	if errors.Is(err, entities.ErrNoteNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to update note", "note_id", id, "error", err)
		return false, fmt.Errorf("failed to update note: %w", err)
	}

	return true, nil
}

// DeleteNote removes a note; false when it did not exist
func (s *NoteService) DeleteNote(ctx context.Context, id int64) (bool, error) {
	err := s.noteRepo.Delete(ctx, id)
	s.metrics.ObserveStore("note", "delete", err)
	if errors.Is(err, entities.ErrNoteNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Errorw("Failed to delete note", "note_id", id, "error", err)
		return false, fmt.Errorf("failed to delete note: %w", err)
	}

	s.logger.Infow("Note deleted", "note_id", id)
	return true, nil
}
