package comments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/eringen/folio/content"
)

// FileLog keeps comments as a JSON array in a single file. Appends are
// serialized by a mutex and written through a temp file plus rename, so a
// crash mid-write leaves the previous list intact.
type FileLog struct {
	mu        sync.Mutex
	path      string
	retention int
	logger    Logger
	now       func() time.Time
}

// NewFileLog opens the comment file at path, creating its directory.
// retention > 0 keeps only the newest retention comments on disk.
func NewFileLog(path string, retention int, logger Logger) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create comments dir: %w", err)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &FileLog{
		path:      path,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Load reads the whole file. Rename-based writes mean readers never see a
// half-written list, so no lock is taken.
func (l *FileLog) Load() ([]Comment, error) {
	return l.read()
}

// Append prepends c and rewrites the file. A file that cannot be parsed is
// moved aside first instead of being overwritten.
func (l *FileLog) Append(c Comment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.read()
	if err != nil {
		if !content.IsMalformed(err) {
			return err
		}
		if err := l.quarantine(); err != nil {
			return err
		}
		items = nil
	}

	items = append([]Comment{c}, items...)
	if l.retention > 0 && len(items) > l.retention {
		items = items[:l.retention]
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}
	if err := atomic.WriteFile(l.path, bytes.NewReader(data)); err != nil {
		return &content.Error{Op: "write comments", Path: l.path, Kind: content.IO, Err: err}
	}
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (l *FileLog) Close() error { return nil }

func (l *FileLog) read() ([]Comment, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &content.Error{Op: "read comments", Path: l.path, Kind: content.IO, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []Comment
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &content.Error{Op: "parse comments", Path: l.path, Kind: content.Malformed, Err: err}
	}
	return items, nil
}

func (l *FileLog) quarantine() error {
	dst := fmt.Sprintf("%s.corrupt-%d", l.path, l.now().Unix())
	if err := os.Rename(l.path, dst); err != nil {
		return &content.Error{Op: "quarantine comments", Path: l.path, Kind: content.IO, Err: err}
	}
	l.logger.Warnf("comments: unreadable %s moved to %s", l.path, dst)
	return nil
}
