package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile is written next to the documents once they have been imported
const MarkerFile = ".legacy_imported"

// Marker records which documents of a directory reached the record store.
// Missing documents count as completed.
type Marker struct {
	RunID      string        `json:"run_id"`
	ImportedAt string        `json:"imported_at"`
	Records    int           `json:"records"`
	Completed  []string      `json:"completed"`
	Failed     []string      `json:"failed,omitempty"`
	Files      []*FileReport `json:"files"`
}

// Done reports whether every document was imported
func (m *Marker) Done() bool {
	return len(m.Failed) == 0
}

// ReadMarker loads the marker in dir; nil when the directory was never imported
func ReadMarker(dir string) (*Marker, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read import marker: %w", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode import marker: %w", err)
	}
	return &m, nil
}

// MarkImported records a run in dir. Files completed by an earlier run stay
// completed; files that failed this time are listed for the next run.
func MarkImported(dir string, previous *Marker, report *Report, at time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	m := Marker{
		RunID:      report.RunID,
		ImportedAt: at.Format(time.RFC3339),
		Records:    report.Imported(),
		Completed:  []string{},
		Files:      report.Files,
	}

	completed := map[string]bool{}
	if previous != nil {
		m.Records += previous.Records
		for _, name := range previous.Completed {
			completed[name] = true
		}
	}
	for _, f := range report.Files {
		if f.Err != nil {
			m.Failed = append(m.Failed, f.File)
			continue
		}
		completed[f.File] = true
	}
	for _, name := range Files {
		if completed[name] {
			m.Completed = append(m.Completed, name)
		}
	}

	if err := writeDocument(filepath.Join(dir, MarkerFile), m); err != nil {
		return fmt.Errorf("write import marker: %w", err)
	}
	return nil
}
