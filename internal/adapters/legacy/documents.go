package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Legacy file names inside the data directory
const (
	NotesFile    = "notes.json"
	TodosFile    = "todos.json"
	EventsFile   = "events.json"
	ChatFile     = "chat_history.json"
	PomodoroFile = "pomodoro_stats.json"
)

// Files lists the documents in import order
var Files = []string{NotesFile, TodosFile, EventsFile, ChatFile, PomodoroFile}

// The widgets wrote naive local timestamps via datetime.isoformat()
const isoLayout = "2006-01-02T15:04:05.999999"

var timestampLayouts = []string{
	time.RFC3339Nano,
	isoLayout,
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

type noteDocument struct {
	ID       flexString `json:"id"`
	Title    flexString `json:"title"`
	Content  flexString `json:"content"`
	Created  flexString `json:"created"`
	Modified flexString `json:"modified"`
}

type todoDocument struct {
	ID        flexString  `json:"id"`
	Text      flexString  `json:"text"`
	Task      *flexString `json:"task,omitempty"`
	Completed flexBool    `json:"completed"`
	Created   flexString  `json:"created"`
	Priority  flexString  `json:"priority"`
}

type eventDocument struct {
	ID          flexString  `json:"id"`
	Title       flexString  `json:"title"`
	Description *flexString `json:"description,omitempty"`
	Date        flexString  `json:"date"`
	Time        *flexString `json:"time,omitempty"`
	Created     flexString  `json:"created"`
	Modified    *flexString `json:"modified,omitempty"`
}

type chatDocument struct {
	Role    flexString `json:"role"`
	Content flexString `json:"content"`
	Time    flexString `json:"time"`
}

type pomodoroDocument struct {
	CompletedPomodoros flexInt           `json:"completed_pomodoros"`
	TotalFocusTime     flexInt           `json:"total_focus_time"`
	Sessions           []sessionDocument `json:"sessions"`
}

type sessionDocument struct {
	Date     flexString `json:"date"`
	Time     flexString `json:"time"`
	Duration flexInt    `json:"duration"`
}

// flexString accepts strings, numbers and null
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

func (s flexString) String() string {
	return string(s)
}

// flexBool accepts booleans, 0/1 and their string forms
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`) {
	case "true", "1", "yes":
		*b = true
	case "false", "0", "no", "", "null":
		*b = false
	default:
		return fmt.Errorf("expected boolean, got %s", data)
	}
	return nil
}

// flexInt accepts integers, floats and numeric strings
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %s", data)
	}
	*i = flexInt(f)
	return nil
}

// parseTimestamp reads the timestamp shapes found in legacy files;
// zone-less values are local time.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(isoLayout)
}
