package audit

import (
	"context"
	"os"
	"sync"
)

// FileSink appends one line per entry to a file.
//
// The file is opened and closed on every write so an interrupted write can
// only affect its own line.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string {
	return s.path
}

// Record appends e to the file.
func (s *FileSink) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(e.Line() + "\n"); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
