package commands

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/assistant/internal/application"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
)

const listTimeLayout = "2006-01-02 15:04"

// appCommand builds a subcommand that runs fn against the wired services
func appCommand(use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, app *application.App, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return withApp(func(app *application.App, log *logger.Logger) error {
				return fn(cmd, app, cmdArgs)
			})
		},
	}
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", entities.ErrInvalidInput, arg)
	}
	return id, nil
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d not found", kind, id)
}

// NewNoteCommand creates the note command
func NewNoteCommand() *cobra.Command {
	noteCmd := &cobra.Command{Use: "note", Short: "Manage notes"}

	var content string
	addCmd := appCommand("add <title>", "Add a note", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := app.Notes.AddNote(cmd.Context(), args[0], content)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %d added\n", id)
		return nil
	})
	addCmd.Flags().StringVar(&content, "content", "", "note body")

	var search string
	listCmd := appCommand("list", "List notes, most recently changed first", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		notes, err := app.Notes.GetNotes(cmd.Context(), search)
		if err != nil {
			return err
		}
		w := newTable(cmd)
		fmt.Fprintln(w, "ID\tTITLE\tMODIFIED")
		for _, n := range notes {
			fmt.Fprintf(w, "%d\t%s\t%s\n", n.ID, n.Title, n.ModifiedAt.Local().Format(listTimeLayout))
		}
		return w.Flush()
	})
	listCmd.Flags().StringVar(&search, "search", "", "only notes whose title or content contains this text")

	showCmd := appCommand("show <id>", "Print a note", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		note, err := app.Notes.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", note.Title, note.Content)
		return nil
	})

	var title, body string
	editCmd := appCommand("edit <id>", "Replace a note's title and content", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		note, err := app.Notes.GetNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("title") {
			note.Title = title
		}
		if cmd.Flags().Changed("content") {
			note.Content = body
		}
		updated, err := app.Notes.UpdateNote(cmd.Context(), id, note.Title, note.Content)
		if err != nil {
			return err
		}
		if !updated {
			return notFound("note", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %d updated\n", id)
		return nil
	})
	editCmd.Flags().StringVar(&title, "title", "", "new title")
	editCmd.Flags().StringVar(&body, "content", "", "new content")

	deleteCmd := appCommand("delete <id>", "Delete a note", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		deleted, err := app.Notes.DeleteNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("note", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note %d deleted\n", id)
		return nil
	})

	noteCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, deleteCmd)
	return noteCmd
}

// NewTaskCommand creates the task command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{Use: "task", Short: "Manage the todo list"}

	var priority string
	addCmd := appCommand("add <text>", "Add a task", cobra.MinimumNArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := app.Tasks.AddTask(cmd.Context(), strings.Join(args, " "), priority)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d added\n", id)
		return nil
	})
	addCmd.Flags().StringVar(&priority, "priority", "Medium", "High, Medium or Low")

	var filter string
	listCmd := appCommand("list", "List tasks", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		f, err := entities.ParseTaskFilter(filter)
		if err != nil {
			return err
		}
		tasks, err := app.Tasks.GetTasks(cmd.Context(), f)
		if err != nil {
			return err
		}
		w := newTable(cmd)
		fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tTEXT")
		for _, task := range tasks {
			done := " "
			if task.Completed {
				done = "x"
			}
			fmt.Fprintf(w, "%d\t[%s]\t%s\t%s\n", task.ID, done, task.Priority, task.Text)
		}
		return w.Flush()
	})
	listCmd.Flags().StringVar(&filter, "filter", "all", "all, active or completed")

	toggleCmd := appCommand("toggle <id>", "Mark a task done or not done", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		toggled, err := app.Tasks.ToggleTask(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !toggled {
			return notFound("task", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d toggled\n", id)
		return nil
	})

	deleteCmd := appCommand("delete <id>", "Delete a task", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		deleted, err := app.Tasks.DeleteTask(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("task", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
		return nil
	})

	clearCmd := appCommand("clear", "Delete every completed task", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		count, err := app.Tasks.ClearCompletedTasks(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d completed tasks\n", count)
		return nil
	})

	statsCmd := appCommand("stats", "Count active and completed tasks", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		stats, err := app.Tasks.TaskStats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active: %d, completed: %d\n", stats.Active, stats.Completed)
		return nil
	})

	taskCmd.AddCommand(addCmd, listCmd, toggleCmd, deleteCmd, clearCmd, statsCmd)
	return taskCmd
}

// NewEventCommand creates the event command
func NewEventCommand() *cobra.Command {
	eventCmd := &cobra.Command{Use: "event", Short: "Manage calendar events"}

	var date, clock, description string
	request := func(cmd *cobra.Command, title string) ports.CreateEventRequest {
		req := ports.CreateEventRequest{Title: title, Date: date}
		if cmd.Flags().Changed("time") {
			req.Time = &clock
		}
		if cmd.Flags().Changed("description") {
			req.Description = &description
		}
		return req
	}
	eventFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&date, "date", time.Now().Format(entities.DateLayout), "day as YYYY-MM-DD")
		cmd.Flags().StringVar(&clock, "time", "", "start as HH:MM; leave out for an all-day event")
		cmd.Flags().StringVar(&description, "description", "", "details")
	}

	addCmd := appCommand("add <title>", "Add an event", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := app.Events.AddEvent(cmd.Context(), request(cmd, args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Event %d added\n", id)
		return nil
	})
	eventFlags(addCmd)

	var day string
	listCmd := appCommand("list", "List events", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		var (
			events []*entities.Event
			err    error
		)
		if day != "" {
			events, err = app.Events.GetEventsByDate(cmd.Context(), day)
		} else {
			events, err = app.Events.GetEvents(cmd.Context())
		}
		if err != nil {
			return err
		}
		w := newTable(cmd)
		fmt.Fprintln(w, "ID\tDATE\tTIME\tTITLE")
		for _, e := range events {
			at := "all day"
			if e.HasTime() {
				at = *e.Time
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Date, at, e.Title)
		}
		return w.Flush()
	})
	listCmd.Flags().StringVar(&day, "date", "", "only events on this day (YYYY-MM-DD)")

	editCmd := appCommand("edit <id> <title>", "Replace an event", cobra.ExactArgs(2), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		updated, err := app.Events.UpdateEvent(cmd.Context(), id, request(cmd, args[1]))
		if err != nil {
			return err
		}
		if !updated {
			return notFound("event", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Event %d updated\n", id)
		return nil
	})
	eventFlags(editCmd)
	_ = editCmd.MarkFlagRequired("date")

	deleteCmd := appCommand("delete <id>", "Delete an event", cobra.ExactArgs(1), func(cmd *cobra.Command, app *application.App, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		deleted, err := app.Events.DeleteEvent(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound("event", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Event %d deleted\n", id)
		return nil
	})

	eventCmd.AddCommand(addCmd, listCmd, editCmd, deleteCmd)
	return eventCmd
}

// NewPomodoroCommand creates the pomodoro command
func NewPomodoroCommand() *cobra.Command {
	pomodoroCmd := &cobra.Command{Use: "pomodoro", Short: "Record focus sessions"}

	var minutes int
	addCmd := appCommand("add", "Record a finished focus session", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		if !cmd.Flags().Changed("minutes") {
			minutes = app.Config.Pomodoro.WorkMinutes
		}
		id, err := app.Pomodoro.AddSession(cmd.Context(), minutes*60)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %d recorded (%d min)\n", id, minutes)
		return nil
	})
	addCmd.Flags().IntVar(&minutes, "minutes", 25, "session length (default from POMODORO_WORK_MINUTES)")

	statsCmd := appCommand("stats", "Summarize focus sessions", cobra.NoArgs, func(cmd *cobra.Command, app *application.App, args []string) error {
		stats, err := app.Pomodoro.Stats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		focus := time.Duration(stats.TotalDuration) * time.Second
		fmt.Fprintf(out, "Completed: %d, total focus: %s\n", stats.CompletedCount, focus)
		for _, s := range stats.RecentSessions {
			fmt.Fprintf(out, "  %s %s  %s\n", s.Date, s.Time, s.Duration())
		}
		return nil
	})

	pomodoroCmd.AddCommand(addCmd, statsCmd)
	return pomodoroCmd
}
