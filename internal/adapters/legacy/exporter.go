package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

// Exporter writes the record store back out in the widget JSON layout
type Exporter struct {
	store  ports.RecordStore
	logger *logger.Logger
}

// NewExporter creates a new legacy exporter
func NewExporter(store ports.RecordStore, log *logger.Logger) *Exporter {
	return &Exporter{
		store:  store,
		logger: log.WithComponent("legacy-export"),
	}
}

// Export writes all five documents into dir, replacing existing files
func (e *Exporter) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	documents := []struct {
		name  string
		build func(context.Context) (interface{}, error)
	}{
		{NotesFile, e.notes},
		{TodosFile, e.todos},
		{EventsFile, e.events},
		{ChatFile, e.chat},
		{PomodoroFile, e.pomodoro},
	}

	for _, doc := range documents {
		value, err := doc.build(ctx)
		if err != nil {
			return fmt.Errorf("export %s: %w", doc.name, err)
		}
		if err := writeDocument(filepath.Join(dir, doc.name), value); err != nil {
			return fmt.Errorf("export %s: %w", doc.name, err)
		}
		e.logger.Infow("Legacy file exported", "file", doc.name, "dir", dir)
	}

	return nil
}

func (e *Exporter) notes(ctx context.Context) (interface{}, error) {
	notes, err := e.store.Notes().List(ctx, ports.NoteFilter{})
	if err != nil {
		return nil, err
	}

	docs := make([]noteDocument, 0, len(notes))
	for _, n := range notes {
		docs = append(docs, noteDocument{
			ID:       idString(n.ID),
			Title:    flexString(n.Title),
			Content:  flexString(n.Content),
			Created:  flexString(formatTimestamp(n.CreatedAt)),
			Modified: flexString(formatTimestamp(n.ModifiedAt)),
		})
	}
	return docs, nil
}

func (e *Exporter) todos(ctx context.Context) (interface{}, error) {
	tasks, err := e.store.Tasks().List(ctx, entities.TaskFilterAll)
	if err != nil {
		return nil, err
	}

	docs := make([]todoDocument, 0, len(tasks))
	for _, t := range tasks {
		docs = append(docs, todoDocument{
			ID:        idString(t.ID),
			Text:      flexString(t.Text),
			Completed: flexBool(t.Completed),
			Created:   flexString(formatTimestamp(t.CreatedAt)),
			Priority:  flexString(t.Priority),
		})
	}
	return docs, nil
}

func (e *Exporter) events(ctx context.Context) (interface{}, error) {
	events, err := e.store.Events().List(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]eventDocument, 0, len(events))
	for _, ev := range events {
		doc := eventDocument{
			ID:      idString(ev.ID),
			Title:   flexString(ev.Title),
			Date:    flexString(ev.Date),
			Created: flexString(formatTimestamp(ev.CreatedAt)),
		}
		if ev.Description != nil {
			description := flexString(*ev.Description)
			doc.Description = &description
		}
		if ev.HasTime() {
			clock := flexString(*ev.Time)
			doc.Time = &clock
		}
		if ev.ModifiedAt != nil {
			modified := flexString(formatTimestamp(*ev.ModifiedAt))
			doc.Modified = &modified
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (e *Exporter) chat(ctx context.Context) (interface{}, error) {
	messages, err := e.store.Chat().History(ctx, 0)
	if err != nil {
		return nil, err
	}

	docs := make([]chatDocument, 0, len(messages))
	for _, m := range messages {
		docs = append(docs, chatDocument{
			Role:    flexString(m.Role),
			Content: flexString(m.Content),
			Time:    flexString(formatTimestamp(m.CreatedAt)),
		})
	}
	return docs, nil
}

func (e *Exporter) pomodoro(ctx context.Context) (interface{}, error) {
	stats, err := e.store.Pomodoro().Stats(ctx, 0)
	if err != nil {
		return nil, err
	}
	sessions, err := e.store.Pomodoro().List(ctx)
	if err != nil {
		return nil, err
	}

	doc := pomodoroDocument{
		CompletedPomodoros: flexInt(stats.CompletedCount),
		TotalFocusTime:     flexInt(stats.TotalDuration),
		Sessions:           make([]sessionDocument, 0, len(sessions)),
	}
	for _, s := range sessions {
		doc.Sessions = append(doc.Sessions, sessionDocument{
			Date:     flexString(s.Date),
			Time:     flexString(s.Time),
			Duration: flexInt(s.DurationSeconds),
		})
	}
	return doc, nil
}

func idString(id int64) flexString {
	return flexString(strconv.FormatInt(id, 10))
}

// writeDocument matches json.dump(indent=4, ensure_ascii=False) and
// replaces the target atomically.
func writeDocument(path string, value interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
