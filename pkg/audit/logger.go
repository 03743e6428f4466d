package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newtron-network/netkit/pkg/util"
)

// DefaultRotation keeps ten 10 MB files.
var DefaultRotation = RotationConfig{MaxSize: 10 << 20, MaxBackups: 10}

// DefaultPath returns ~/.netkit/audit.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".netkit", "audit.log")
	}
	return filepath.Join(home, ".netkit", "audit.log")
}

// Logger is an audit backend.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// FileLogger appends events to a JSON-lines file, rotating it by size.
type FileLogger struct {
	path     string
	rotation RotationConfig

	mu      sync.RWMutex
	file    *os.File
	encoder *json.Encoder
}

// RotationConfig bounds the log size. Zero values disable rotation.
type RotationConfig struct {
	MaxSize    int64 // bytes before the file is rotated
	MaxBackups int   // rotated files kept
}

// NewFileLogger opens (creating if needed) the log at path.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return l, nil
}

func (l *FileLogger) open() error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.encoder = json.NewEncoder(file)
	return nil
}

// Path returns the log file location.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends event, rotating first when the file is full.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.needsRotation() {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating audit log: %w", err)
		}
	}
	return l.encoder.Encode(event)
}

func (l *FileLogger) needsRotation() bool {
	if l.rotation.MaxSize <= 0 {
		return false
	}
	info, err := l.file.Stat()
	return err == nil && info.Size() >= l.rotation.MaxSize
}

// Query reads the current log file and returns matching events oldest
// first. Malformed lines are skipped with a warning.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Event{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []*Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			util.Warnf("audit: skipping malformed entry at line %d: %v", line, err)
			continue
		}
		if filter.Matches(&event) {
			events = append(events, &event)
		}
	}
	return page(events, filter.Offset, filter.Limit), scanner.Err()
}

func page(events []*Event, offset, limit int) []*Event {
	if offset > 0 {
		if offset >= len(events) {
			return nil
		}
		events = events[offset:]
	}
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events
}

// Close closes the log file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate renames the full log to <path>.<timestamp> and starts a new one.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	rotated := l.path + "." + time.Now().Format("20060102-150405.000000000")
	if err := os.Rename(l.path, rotated); err != nil {
		return err
	}
	if err := l.open(); err != nil {
		return err
	}
	if l.rotation.MaxBackups > 0 {
		l.pruneBackups()
	}
	return nil
}

// pruneBackups removes the oldest rotated files beyond MaxBackups.
func (l *FileLogger) pruneBackups() {
	matches, err := filepath.Glob(l.path + ".*")
	if err != nil || len(matches) <= l.rotation.MaxBackups {
		return
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	backups := make([]backup, 0, len(matches))
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil {
			backups = append(backups, backup{path, info.ModTime()})
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].path < backups[j].path
		}
		return backups[i].modTime.Before(backups[j].modTime)
	})
	for i := 0; i < len(backups)-l.rotation.MaxBackups; i++ {
		os.Remove(backups[i].path)
	}
}

// loggerHolder wraps a Logger so atomic.Value always stores the same concrete type.
type loggerHolder struct {
	logger Logger
}

var defaultLogger atomic.Value

// SetDefaultLogger installs the process-wide logger; nil disables auditing.
func SetDefaultLogger(logger Logger) {
	defaultLogger.Store(loggerHolder{logger: logger})
}

func getDefaultLogger() Logger {
	v := defaultLogger.Load()
	if v == nil {
		return nil
	}
	return v.(loggerHolder).logger
}

// Log records event with the default logger. Without one it does nothing.
func Log(event *Event) error {
	l := getDefaultLogger()
	if l == nil {
		return nil
	}
	return l.Log(event)
}

// Query queries events from the default logger
func Query(filter Filter) ([]*Event, error) {
	l := getDefaultLogger()
	if l == nil {
		return []*Event{}, nil
	}
	return l.Query(filter)
}
