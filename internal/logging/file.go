package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Retention is the age at which old log files are deleted on startup.
const Retention = 5 * 24 * time.Hour

const dateLayout = "2006-01-02"

// FileSink is an append-only writer into <dir>/<name>-YYYY-MM-DD.log.
// The file is switched when the local date changes.
type FileSink struct {
	dir  string
	name string
	now  func() time.Time

	mu   sync.Mutex
	file *os.File
	day  string
}

// NewFileSink creates the directory if needed and writes a session
// separator. Old files are left to DeleteOld.
func NewFileSink(dir, name string) (*FileSink, error) {
	return newFileSink(dir, name, time.Now)
}

func newFileSink(dir, name string, now func() time.Time) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	s := &FileSink{dir: dir, name: name, now: now}
	if _, err := s.Write([]byte(strings.Repeat("#", 40) + "\n")); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file the next write goes to.
func (s *FileSink) Path() string {
	return s.pathFor(s.now().Format(dateLayout))
}

func (s *FileSink) pathFor(day string) string {
	return filepath.Join(s.dir, s.name+"-"+day+".log")
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.now().Format(dateLayout)
	if s.file == nil || day != s.day {
		if s.file != nil {
			_ = s.file.Close()
		}
		f, err := os.OpenFile(s.pathFor(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			s.file = nil
			return 0, fmt.Errorf("failed to open log file: %w", err)
		}
		s.file, s.day = f, day
	}
	return s.file.Write(p)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// DeleteOld removes <name>-YYYY-MM-DD.log files in dir whose date is at least
// maxAge before now. Files with an unparsable date are left alone.
func DeleteOld(dir, name string, now time.Time, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, name+"-*.log"))
	if err != nil {
		return 0, err
	}
	// Compare calendar dates in UTC so DST shifts do not move the boundary.
	today, _ := time.Parse(dateLayout, now.Format(dateLayout))
	deleted := 0
	for _, path := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), name+"-"), ".log")
		day, err := time.Parse(dateLayout, stamp)
		if err != nil {
			continue
		}
		if today.Sub(day) >= maxAge {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
