package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/repository"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/database"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewStore(db)
}

// clock returns a controllable now function
func clock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestNoteService(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(newStore(t).Notes(), logger.NewNop(), metrics.New())
	now, advance := clock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc.now = now

	id, err := svc.AddNote(ctx, "Покупки", "мляко, хляб")
	require.NoError(t, err)

	note, err := svc.GetNote(ctx, id)
	require.NoError(t, err)
	assert.True(t, note.CreatedAt.Equal(note.ModifiedAt))

	advance(time.Minute)
	otherID, err := svc.AddNote(ctx, "Идеи", "")
	require.NoError(t, err)

	notes, err := svc.GetNotes(ctx, "")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, otherID, notes[0].ID)

	advance(time.Minute)
	updated, err := svc.UpdateNote(ctx, id, "Покупки", "мляко, хляб, сирене")
	require.NoError(t, err)
	assert.True(t, updated)

	notes, err = svc.GetNotes(ctx, "СИРЕНЕ")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)
	assert.True(t, notes[0].ModifiedAt.After(notes[0].CreatedAt))

	updated, err = svc.UpdateNote(ctx, 999, "ghost", "")
	require.NoError(t, err)
	assert.False(t, updated)

	all, err := svc.GetNotes(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 2, "update of a missing note never inserts")

	deleted, err := svc.DeleteNote(ctx, otherID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteNote(ctx, otherID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.GetNote(ctx, otherID)
	assert.ErrorIs(t, err, entities.ErrNoteNotFound)
}

func TestTaskService(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newStore(t).Tasks(), logger.NewNop(), nil)
	now, advance := clock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	svc.now = now

	_, err := svc.AddTask(ctx, "   ", "High")
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = svc.AddTask(ctx, "task", "urgent")
	assert.ErrorIs(t, err, entities.ErrInvalidPriority)

	lowID, err := svc.AddTask(ctx, "low", "low")
	require.NoError(t, err)
	advance(time.Second)
	defaultID, err := svc.AddTask(ctx, "default", "")
	require.NoError(t, err)
	advance(time.Second)
	highID, err := svc.AddTask(ctx, "high", "High")
	require.NoError(t, err)

	tasks, err := svc.GetTasks(ctx, entities.TaskFilterAll)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{highID, defaultID, lowID}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	assert.Equal(t, entities.PriorityMedium, tasks[1].Priority)

	toggled, err := svc.ToggleTask(ctx, highID)
	require.NoError(t, err)
	assert.True(t, toggled)

	toggled, err = svc.ToggleTask(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, toggled)

	tasks, err = svc.GetTasks(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, highID, tasks[2].ID, "completed tasks sort last")

	stats, err := svc.TaskStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStats{Active: 2, Completed: 1}, *stats)

	_, err = svc.GetTasks(ctx, entities.TaskFilter("later"))
	assert.ErrorIs(t, err, entities.ErrInvalidTaskFilter)

	cleared, err := svc.ClearCompletedTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	deleted, err := svc.DeleteTask(ctx, lowID)
	require.NoError(t, err)
	assert.True(t, deleted)

	tasks, err = svc.GetTasks(ctx, entities.TaskFilterActive)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, defaultID, tasks[0].ID)
}

func strPtr(s string) *string { return &s }

func TestEventService(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(newStore(t).Events(), logger.NewNop(), nil)

	_, err := svc.AddEvent(ctx, ports.CreateEventRequest{Title: "", Date: "2024-05-02"})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = svc.AddEvent(ctx, ports.CreateEventRequest{Title: "x", Date: "02.05.2024"})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, err = svc.AddEvent(ctx, ports.CreateEventRequest{Title: "x", Date: "2024-05-02", Time: strPtr("25:00")})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	allDay, err := svc.AddEvent(ctx, ports.CreateEventRequest{Title: "Рожден ден", Date: "2024-05-02", Time: strPtr("")})
	require.NoError(t, err)
	meeting, err := svc.AddEvent(ctx, ports.CreateEventRequest{Title: "Среща", Date: "2024-05-02", Time: strPtr("09:30"), Description: strPtr("офис")})
	require.NoError(t, err)

	events, err := svc.GetEventsByDate(ctx, "2024-05-02")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, meeting, events[0].ID)
	assert.Equal(t, allDay, events[1].ID)
	assert.False(t, events[1].HasTime())

	_, err = svc.GetEventsByDate(ctx, "tomorrow")
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	updated, err := svc.UpdateEvent(ctx, allDay, ports.UpdateEventRequest{Title: "Рожден ден", Date: "2024-05-03", Time: strPtr("19:00")})
	require.NoError(t, err)
	assert.True(t, updated)

	events, err = svc.GetEventsByDate(ctx, "2024-05-03")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].ModifiedAt)

	updated, err = svc.UpdateEvent(ctx, 404, ports.UpdateEventRequest{Title: "x", Date: "2024-05-03"})
	require.NoError(t, err)
	assert.False(t, updated)

	all, err := svc.GetEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := svc.DeleteEvent(ctx, meeting)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestEventTimesAreZeroPadded(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(newStore(t).Events(), logger.NewNop(), nil)

	ten, err := svc.AddEvent(ctx, ports.CreateEventRequest{Title: "late", Date: "2024-05-02", Time: strPtr("10:00")})
	require.NoError(t, err)
	nine, err := svc.AddEvent(ctx, ports.CreateEventRequest{Title: "early", Date: "2024-05-02", Time: strPtr("9:05")})
	require.NoError(t, err)

	events, err := svc.GetEventsByDate(ctx, "2024-05-02")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, nine, events[0].ID)
	require.NotNil(t, events[0].Time)
	assert.Equal(t, "09:05", *events[0].Time)
	assert.Equal(t, ten, events[1].ID)

	updated, err := svc.UpdateEvent(ctx, ten, ports.UpdateEventRequest{Title: "late", Date: "2024-05-02", Time: strPtr("7:45")})
	require.NoError(t, err)
	require.True(t, updated)

	events, err = svc.GetEventsByDate(ctx, "2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, ten, events[0].ID)
	assert.Equal(t, "07:45", *events[0].Time)

	_, err = svc.AddEvent(ctx, ports.CreateEventRequest{Title: "x", Date: "2024-05-02", Time: strPtr("9:5")})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestPomodoroService(t *testing.T) {
	ctx := context.Background()
	svc := NewPomodoroService(newStore(t).Pomodoro(), logger.NewNop(), nil)
	now, advance := clock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local))
	svc.now = now

	_, err := svc.AddSession(ctx, 0)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	var last int64
	for i := 0; i < 12; i++ {
		last, err = svc.AddSession(ctx, 25*60)
		require.NoError(t, err)
		advance(30 * time.Minute)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.CompletedCount)
	assert.Equal(t, 12*25*60, stats.TotalDuration)
	require.Len(t, stats.RecentSessions, RecentSessionLimit)
	assert.Equal(t, last, stats.RecentSessions[0].ID)
	assert.Equal(t, "2024-05-01", stats.RecentSessions[0].Date)
	assert.Equal(t, "13:30:00", stats.RecentSessions[0].Time)
}

func TestStatusService(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Language: "en"},
		LLM:     config.LLMConfig{APIURL: "http://localhost:11434/api"},
		Weather: config.WeatherConfig{APIKey: "your_openweather_api_key_here"},
	}
	gw, local, _ := newFakeGateway("openai")
	svc := NewStatusService(cfg, gw, logger.NewNop())

	report := svc.Status(context.Background(), true)
	assert.False(t, report.CloudConfigured)
	assert.False(t, report.WeatherConfigured)
	assert.Equal(t, "openai", report.Model)
	assert.True(t, report.LocalReachable)
	assert.Equal(t, "0.5.4", report.LocalVersion)
	assert.Equal(t, []string{
		"OpenWeather API key is not configured",
		"An OpenAI API key is required for the selected model",
	}, report.Issues)

	gw.SetAPIKey("sk-test")
	gw.ChangeModel("llama3.2")
	local.err = assert.AnError
	cfg.Weather.APIKey = "real-key"

	report = svc.Status(context.Background(), true)
	assert.True(t, report.CloudConfigured)
	assert.False(t, report.LocalReachable)
	assert.Equal(t, []string{"Cannot reach the Ollama server"}, report.Issues)

	report = svc.Status(context.Background(), false)
	assert.Empty(t, report.Issues)
}
