package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/ports"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}

func strPtr(s string) *string { return &s }

func TestNoteRepository(t *testing.T) {
	ctx := context.Background()
	notes := newTestStore(t).Notes()

	first := &entities.Note{Title: "Пазар", Content: "мляко и хляб", CreatedAt: base, ModifiedAt: base}
	second := &entities.Note{Title: "Work", Content: "Quarterly report", CreatedAt: base, ModifiedAt: base.Add(time.Hour)}
	require.NoError(t, notes.Create(ctx, first))
	require.NoError(t, notes.Create(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	got, err := notes.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Пазар", got.Title)
	assert.True(t, got.CreatedAt.Equal(base))

	t.Run("ordered by modified desc", func(t *testing.T) {
		all, err := notes.List(ctx, ports.NoteFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)
		assert.Equal(t, first.ID, all[1].ID)
	})

	t.Run("search is case-insensitive over title and content", func(t *testing.T) {
		found, err := notes.List(ctx, ports.NoteFilter{Search: strPtr("МЛЯКО")})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, first.ID, found[0].ID)

		found, err = notes.List(ctx, ports.NoteFilter{Search: strPtr("quarterly")})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)

		found, err = notes.List(ctx, ports.NoteFilter{Search: strPtr("missing")})
		require.NoError(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)
	})

	t.Run("update refreshes modified", func(t *testing.T) {
		first.Title = "Пазар 2"
		first.ModifiedAt = base.Add(2 * time.Hour)
		require.NoError(t, notes.Update(ctx, first))

		all, err := notes.List(ctx, ports.NoteFilter{})
		require.NoError(t, err)
		assert.Equal(t, first.ID, all[0].ID)
		assert.Equal(t, "Пазар 2", all[0].Title)
	})

	t.Run("update of a missing note never inserts", func(t *testing.T) {
		err := notes.Update(ctx, &entities.Note{ID: 999, Title: "ghost", ModifiedAt: base})
		assert.ErrorIs(t, err, entities.ErrNoteNotFound)

		all, err := notes.List(ctx, ports.NoteFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, notes.Delete(ctx, second.ID))
		assert.ErrorIs(t, notes.Delete(ctx, second.ID), entities.ErrNoteNotFound)

		_, err := notes.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, entities.ErrNoteNotFound)
	})
}

func TestTaskRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	tasks := newTestStore(t).Tasks()

	add := func(text string, p entities.Priority, offset time.Duration) *entities.Task {
		task := &entities.Task{Text: text, Priority: p, CreatedAt: base.Add(offset)}
		require.NoError(t, tasks.Create(ctx, task))
		return task
	}

	lowOld := add("low old", entities.PriorityLow, 0)
	highNew := add("high new", entities.PriorityHigh, 3*time.Minute)
	medium := add("medium", entities.PriorityMedium, time.Minute)
	highOld := add("high old", entities.PriorityHigh, 2*time.Minute)
	done := add("done high", entities.PriorityHigh, -time.Hour)

	require.NoError(t, tasks.Toggle(ctx, done.ID))

	all, err := tasks.List(ctx, entities.TaskFilterAll)
	require.NoError(t, err)

	var ids []int64
	for _, task := range all {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{highOld.ID, highNew.ID, medium.ID, lowOld.ID, done.ID}, ids)

	active, err := tasks.List(ctx, entities.TaskFilterActive)
	require.NoError(t, err)
	assert.Len(t, active, 4)

	completed, err := tasks.List(ctx, entities.TaskFilterCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.True(t, completed[0].Completed)

	_, err = tasks.List(ctx, entities.TaskFilter("someday"))
	assert.ErrorIs(t, err, entities.ErrInvalidTaskFilter)
}

func TestTaskRepositoryToggleAndClear(t *testing.T) {
	ctx := context.Background()
	tasks := newTestStore(t).Tasks()

	task := &entities.Task{Text: "call mom", Priority: entities.PriorityMedium, CreatedAt: base}
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, tasks.Toggle(ctx, task.ID))
	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	require.NoError(t, tasks.Toggle(ctx, task.ID))
	got, err = tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "toggling twice restores the original state")

	assert.ErrorIs(t, tasks.Toggle(ctx, 404), entities.ErrTaskNotFound)

	for i := 0; i < 3; i++ {
		extra := &entities.Task{Text: fmt.Sprintf("t%d", i), Priority: entities.PriorityLow, CreatedAt: base}
		require.NoError(t, tasks.Create(ctx, extra))
		if i < 2 {
			require.NoError(t, tasks.Toggle(ctx, extra.ID))
		}
	}

	stats, err := tasks.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStats{Active: 2, Completed: 2}, *stats)

	cleared, err := tasks.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	cleared, err = tasks.DeleteCompleted(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	completed, err := tasks.List(ctx, entities.TaskFilterCompleted)
	require.NoError(t, err)
	assert.Empty(t, completed)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	assert.ErrorIs(t, tasks.Delete(ctx, task.ID), entities.ErrTaskNotFound)
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	events := newTestStore(t).Events()

	add := func(title, date string, clock *string) *entities.Event {
		event := &entities.Event{Title: title, Date: date, Time: clock, CreatedAt: base}
		require.NoError(t, events.Create(ctx, event))
		return event
	}

	allDay := add("all day", "2024-03-05", nil)
	late := add("late", "2024-03-05", strPtr("18:30"))
	early := add("early", "2024-03-05", strPtr("08:15"))
	allDay2 := add("all day 2", "2024-03-05", nil)
	other := add("other day", "2024-03-04", strPtr("12:00"))

	byDate, err := events.ListByDate(ctx, "2024-03-05")
	require.NoError(t, err)

	var ids []int64
	for _, event := range byDate {
		ids = append(ids, event.ID)
	}
	assert.Equal(t, []int64{early.ID, late.ID, allDay.ID, allDay2.ID}, ids)

	empty, err := events.ListByDate(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	all, err := events.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, other.ID, all[0].ID)

	modified := base.Add(time.Hour)
	late.Description = strPtr("dinner")
	late.ModifiedAt = &modified
	require.NoError(t, events.Update(ctx, late))

	got, err := events.GetByID(ctx, late.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, "dinner", *got.Description)
	require.NotNil(t, got.ModifiedAt)
	assert.True(t, got.ModifiedAt.Equal(modified))
	assert.Nil(t, allDay.ModifiedAt)

	assert.ErrorIs(t, events.Update(ctx, &entities.Event{ID: 77, Title: "x", Date: "2024-01-01"}), entities.ErrEventNotFound)
	require.NoError(t, events.Delete(ctx, other.ID))
	assert.ErrorIs(t, events.Delete(ctx, other.ID), entities.ErrEventNotFound)
}

func TestChatRepositoryHistory(t *testing.T) {
	ctx := context.Background()
	chat := newTestStore(t).Chat()

	for i := 0; i < 7; i++ {
		role := entities.ChatRoleUser
		if i%2 == 1 {
			role = entities.ChatRoleAssistant
		}
		msg := &entities.ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, chat.Create(ctx, msg))
	}

	recent, err := chat.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "m4", recent[0].Content)
	assert.Equal(t, "m5", recent[1].Content)
	assert.Equal(t, "m6", recent[2].Content)

	all, err := chat.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "m0", all[0].Content)
	assert.Equal(t, entities.ChatRoleAssistant, all[1].Role)

	cleared, err := chat.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cleared)

	all, err = chat.History(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPomodoroRepositoryStats(t *testing.T) {
	ctx := context.Background()
	pomodoro := newTestStore(t).Pomodoro()

	stats, err := pomodoro.Stats(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, stats.CompletedCount)
	assert.Zero(t, stats.TotalDuration)
	assert.Empty(t, stats.RecentSessions)

	var last int64
	for i := 0; i < 12; i++ {
		created := base.Add(time.Duration(i) * 30 * time.Minute)
		session := &entities.PomodoroSession{
			Date:            created.Format(entities.DateLayout),
			Time:            created.Format(entities.SessionTimeLayout),
			DurationSeconds: 1500,
			CreatedAt:       created,
		}
		require.NoError(t, pomodoro.Create(ctx, session))
		last = session.ID
	}

	stats, err = pomodoro.Stats(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.CompletedCount)
	assert.Equal(t, 12*1500, stats.TotalDuration)
	require.Len(t, stats.RecentSessions, 10)
	assert.Equal(t, last, stats.RecentSessions[0].ID)

	sessions, err := pomodoro.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 12)
}

func TestStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			if err := store.Notes().Create(ctx, &entities.Note{Title: fmt.Sprintf("n%d", i), CreatedAt: base, ModifiedAt: base}); err != nil {
				return err
			}
			_, err := store.Notes().List(ctx, ports.NoteFilter{})
			return err
		})
	}
	require.NoError(t, g.Wait())

	all, err := store.Notes().List(ctx, ports.NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 20)

	seen := map[int64]bool{}
	for _, note := range all {
		assert.False(t, seen[note.ID], "duplicate id %d", note.ID)
		seen[note.ID] = true
	}
}

func TestTimestampsOrderAcrossZones(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sofia := time.FixedZone("EEST", 3*60*60)
	// 12:00+03:00 is 09:00Z, an hour before the UTC note
	older := &entities.Note{Title: "older", CreatedAt: base, ModifiedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, sofia)}
	newer := &entities.Note{Title: "newer", CreatedAt: base, ModifiedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Notes().Create(ctx, newer))
	require.NoError(t, store.Notes().Create(ctx, older))

	notes, err := store.Notes().List(ctx, ports.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "newer", notes[0].Title)
	assert.Equal(t, "older", notes[1].Title)
	assert.True(t, notes[1].ModifiedAt.Equal(older.ModifiedAt))

	chat := store.Chat()
	require.NoError(t, chat.Create(ctx, &entities.ChatMessage{Role: entities.ChatRoleUser, Content: "second", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}))
	require.NoError(t, chat.Create(ctx, &entities.ChatMessage{Role: entities.ChatRoleUser, Content: "first", CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, sofia)}))

	history, err := chat.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
}

func TestWithinTransaction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("commits", func(t *testing.T) {
		err := store.WithinTransaction(ctx, func(tx ports.RecordStore) error {
			if err := tx.Notes().Create(ctx, &entities.Note{Title: "kept", CreatedAt: base, ModifiedAt: base}); err != nil {
				return err
			}
			return tx.Tasks().Create(ctx, &entities.Task{Text: "kept", Priority: entities.PriorityLow, CreatedAt: base})
		})
		require.NoError(t, err)

		notes, err := store.Notes().List(ctx, ports.NoteFilter{})
		require.NoError(t, err)
		assert.Len(t, notes, 1)
	})

	t.Run("rolls back", func(t *testing.T) {
		err := store.WithinTransaction(ctx, func(tx ports.RecordStore) error {
			for i := 0; i < 3; i++ {
				if err := tx.Notes().Create(ctx, &entities.Note{Title: fmt.Sprintf("lost %d", i), CreatedAt: base, ModifiedAt: base}); err != nil {
					return err
				}
			}
			// Nested calls join the same transaction
			return tx.WithinTransaction(ctx, func(inner ports.RecordStore) error {
				all, err := inner.Notes().List(ctx, ports.NoteFilter{})
				require.NoError(t, err)
				assert.Len(t, all, 4)
				return assert.AnError
			})
		})
		assert.ErrorIs(t, err, assert.AnError)

		notes, err := store.Notes().List(ctx, ports.NoteFilter{})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "kept", notes[0].Title)
	})
}
