package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// FileReport summarizes one legacy document
type FileReport struct {
	File     string `json:"file"`
	Missing  bool   `json:"missing"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Err      error  `json:"-"`
}

// Report is the outcome of one import run
type Report struct {
	RunID string        `json:"run_id"`
	Files []*FileReport `json:"files"`
}

// Imported counts records written across all files
func (r *Report) Imported() int {
	total := 0
	for _, f := range r.Files {
		total += f.Imported
	}
	return total
}

// Errors returns the per-file failures; every one is an *entities.ImportError
func (r *Report) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// Importer copies the widget JSON documents into the record store.
// It always appends; callers decide whether a run already happened.
type Importer struct {
	store    ports.RecordStore
	logger   *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewImporter creates a new legacy importer
func NewImporter(store ports.RecordStore, log *logger.Logger) *Importer {
	return &Importer{
		store:    store,
		logger:   log.WithComponent("legacy-import"),
		validate: validator.New(),
		now:      legacyNow,
	}
}

// legacyNow drops what the microsecond legacy timestamps cannot carry
func legacyNow() time.Time {
	return time.Now().Truncate(time.Microsecond)
}

type importFunc func(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error

// Import reads every legacy document present in dir. A broken file is
// reported and the remaining files are still imported; only context
// cancellation aborts the run.
func (i *Importer) Import(ctx context.Context, dir string) (*Report, error) {
	return i.ImportFiles(ctx, dir, Files)
}

// ImportFiles imports the named documents from dir. Each file is written in
// one transaction, so a failed file leaves none of its records behind.
func (i *Importer) ImportFiles(ctx context.Context, dir string, names []string) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := i.logger.WithFields("run_id", report.RunID, "dir", dir)

	steps := map[string]importFunc{
		NotesFile:    i.importNotes,
		TodosFile:    i.importTodos,
		EventsFile:   i.importEvents,
		ChatFile:     i.importChat,
		PomodoroFile: i.importPomodoro,
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	for _, name := range Files {
		if !wanted[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fileReport := &FileReport{File: name}
		report.Files = append(report.Files, fileReport)

		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			fileReport.Missing = true
			continue
		}
		if err == nil {
			err = i.store.WithinTransaction(ctx, func(tx ports.RecordStore) error {
				return steps[name](ctx, tx, data, fileReport)
			})
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			// Rolled back
			fileReport.Imported = 0
			fileReport.Err = &entities.ImportError{File: name, Err: err}
			log.WithError(err).Warnw("Legacy file import failed", "file", name)
			continue
		}

		log.Infow("Legacy file imported", "file", name, "imported", fileReport.Imported, "skipped", fileReport.Skipped)
	}

	return report, nil
}

// decodeRecords splits a JSON array so one bad record cannot spoil the file
func decodeRecords(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return records, nil
}

func (i *Importer) skip(report *FileReport, index int, reason string) {
	report.Skipped++
	i.logger.Debugw("Legacy record skipped", "file", report.File, "index", index, "reason", reason)
}

func (i *Importer) importNotes(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error {
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	for idx, raw := range records {
		var doc noteDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		now := i.now()
		created, ok := parseTimestamp(doc.Created.String())
		if !ok {
			created = now
		}
		modified, ok := parseTimestamp(doc.Modified.String())
		if !ok {
			modified = created
		}

		note := &entities.Note{
			Title:     doc.Title.String(),
			Content:   doc.Content.String(),
			CreatedAt: created,
		}
		note.Touch(modified)

		if err := store.Notes().Create(ctx, note); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
		report.Imported++
	}

	return nil
}

func (i *Importer) importTodos(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error {
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	for idx, raw := range records {
		var doc todoDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		text := doc.Text.String()
		if text == "" && doc.Task != nil {
			text = doc.Task.String()
		}

		priority, err := entities.ParsePriority(doc.Priority.String())
		if err != nil {
			priority = entities.PriorityMedium
		}

		created, ok := parseTimestamp(doc.Created.String())
		if !ok {
			created = i.now()
		}

		task := &entities.Task{
			Text:      strings.TrimSpace(text),
			Completed: bool(doc.Completed),
			Priority:  priority,
			CreatedAt: created,
		}
		if err := i.validate.Struct(task); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		if err := store.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
		report.Imported++
	}

	return nil
}

func (i *Importer) importEvents(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error {
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	for idx, raw := range records {
		var doc eventDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		created, ok := parseTimestamp(doc.Created.String())
		if !ok {
			created = i.now()
		}

		event := &entities.Event{
			Title:     strings.TrimSpace(doc.Title.String()),
			Date:      strings.TrimSpace(doc.Date.String()),
			CreatedAt: created,
		}
		if doc.Description != nil && doc.Description.String() != "" {
			description := doc.Description.String()
			event.Description = &description
		}
		if doc.Time != nil && strings.TrimSpace(doc.Time.String()) != "" {
			clock, err := entities.NormalizeClock(doc.Time.String())
			if err != nil {
				i.skip(report, idx, err.Error())
				continue
			}
			event.Time = &clock
		}
		if doc.Modified != nil {
			if modified, ok := parseTimestamp(doc.Modified.String()); ok {
				event.ModifiedAt = &modified
			}
		}

		if err := i.validate.Struct(event); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		if err := store.Events().Create(ctx, event); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
		report.Imported++
	}

	return nil
}

func (i *Importer) importChat(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error {
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}

	for idx, raw := range records {
		var doc chatDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			i.skip(report, idx, err.Error())
			continue
		}

		role, err := entities.ParseChatRole(doc.Role.String())
		if err != nil {
			role = entities.ChatRoleUser
		}

		created, ok := parseTimestamp(doc.Time.String())
		if !ok {
			created = i.now()
		}

		msg := &entities.ChatMessage{
			Role:      role,
			Content:   doc.Content.String(),
			CreatedAt: created,
		}
		if err := store.Chat().Create(ctx, msg); err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}
		report.Imported++
	}

	return nil
}

func (i *Importer) importPomodoro(ctx context.Context, store ports.RecordStore, data []byte, report *FileReport) error {
	var doc pomodoroDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	for idx, s := range doc.Sessions {
		if s.Duration <= 0 {
			i.skip(report, idx, "non-positive duration")
			continue
		}

		created, ok := parseTimestamp(s.Date.String() + "T" + s.Time.String())
		if !ok {
			created, ok = parseTimestamp(s.Date.String())
		}
		if !ok {
			created = i.now()
		}

		session := &entities.PomodoroSession{
			Date:            created.Format(entities.DateLayout),
			Time:            created.Format(entities.SessionTimeLayout),
			DurationSeconds: int(s.Duration),
			CreatedAt:       created,
		}
		if err := store.Pomodoro().Create(ctx, session); err != nil {
			return fmt.Errorf("session %d: %w", idx, err)
		}
		report.Imported++
	}

	return nil
}
