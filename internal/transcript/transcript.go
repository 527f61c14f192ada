// Package transcript writes per-run session transcripts, partitioned by day,
// so a failed reset can be replayed keystroke by keystroke afterwards.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store creates transcript files under a base directory using the layout
// <dir>/YYYY/MM/DD/<process>_<dc>_<order>_<epoch>.log.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore builds a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// File is one open transcript. Its path is recorded on the job record when
// the run completes.
type File struct {
	f    *os.File
	path string
}

// Create opens a new transcript file for one run.
func (s *Store) Create(process, dc, orderNumber string) (*File, error) {
	now := s.now()
	dayDir := filepath.Join(s.dir,
		now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_%d.log", process, dc, orderNumber, now.Unix())
	path := filepath.Join(dayDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	fmt.Fprintf(f, "%s transcript opened process=%s dc=%s order=%s\n",
		now.Format("2006-01-02 15:04:05"), process, dc, orderNumber)
	return &File{f: f, path: path}, nil
}

// Path returns the file's location on disk.
func (t *File) Path() string {
	return t.path
}

// Write appends raw transcript data.
func (t *File) Write(p []byte) (int, error) {
	return t.f.Write(p)
}

// Close flushes and closes the transcript.
func (t *File) Close() error {
	return t.f.Close()
}
