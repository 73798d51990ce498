package comments

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eringen/folio/content"
)

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func setupFileLog(t *testing.T, retention int) (*FileLog, string, *recordingLogger) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "comments.json")
	logger := &recordingLogger{}
	l, err := NewFileLog(path, retention, logger)
	if err != nil {
		t.Fatalf("failed to create file log: %v", err)
	}
	return l, path, logger
}

func setupSQLiteLog(t *testing.T, retention int) *SQLiteLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "comments.db")
	l, err := NewSQLiteLog(path, retention)
	if err != nil {
		t.Fatalf("failed to create sqlite log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNew(t *testing.T) {
	at := time.Date(2024, 6, 1, 14, 5, 9, 0, time.FixedZone("CEST", 2*60*60))
	c := New("Ada", "Hello", at)

	if c.TS != at.Unix() {
		t.Errorf("TS = %d, want %d", c.TS, at.Unix())
	}
	if c.When != "2024-06-01 12:05 UTC" {
		t.Errorf("When = %q, want %q", c.When, "2024-06-01 12:05 UTC")
	}
}

func TestLatest(t *testing.T) {
	items := make([]Comment, 250)
	if got := Latest(items, DisplayLimit); len(got) != DisplayLimit {
		t.Errorf("Latest len = %d, want %d", len(got), DisplayLimit)
	}
	if got := Latest(items[:3], DisplayLimit); len(got) != 3 {
		t.Errorf("Latest len = %d, want 3", len(got))
	}
	if got := Latest(nil, DisplayLimit); len(got) != 0 {
		t.Errorf("Latest(nil) len = %d, want 0", len(got))
	}
}

// roundTrip checks that N appends read back as N comments, newest first.
func roundTrip(t *testing.T, l Log) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	const n = 5
	for i := 0; i < n; i++ {
		if err := l.Append(New(fmt.Sprintf("user-%d", i), "msg", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != n {
		t.Fatalf("Load count = %d, want %d", len(got), n)
	}
	for i, c := range got {
		want := fmt.Sprintf("user-%d", n-1-i)
		if c.Name != want {
			t.Errorf("got[%d].Name = %q, want %q", i, c.Name, want)
		}
	}
}

func TestFileLogMissingFile(t *testing.T) {
	l, _, _ := setupFileLog(t, 0)

	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load count = %d, want 0", len(got))
	}
}

func TestFileLogRoundTrip(t *testing.T) {
	l, path, _ := setupFileLog(t, 0)
	roundTrip(t, l)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {\n    \"name\": \"user-4\"") {
		t.Errorf("file layout = %q", string(data)[:40])
	}
}

func TestFileLogMalformedLoad(t *testing.T) {
	l, path, _ := setupFileLog(t, 0)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := l.Load()
	if len(got) != 0 {
		t.Errorf("Load count = %d, want 0", len(got))
	}
	if !content.IsMalformed(err) {
		t.Errorf("Load error = %v, want malformed", err)
	}
}

func TestFileLogAppendQuarantinesMalformed(t *testing.T) {
	l, path, logger := setupFileLog(t, 0)
	l.now = func() time.Time { return time.Unix(1700000000, 0) }
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := l.Append(New("Ada", "first after corruption", time.Now())); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ada" {
		t.Errorf("Load = %+v, want one comment from Ada", got)
	}
	saved, err := os.ReadFile(path + ".corrupt-1700000000")
	if err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
	if string(saved) != "{not json" {
		t.Errorf("quarantined content = %q", saved)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("warnings = %v, want one", logger.warnings)
	}
}

func TestFileLogRetention(t *testing.T) {
	l, _, _ := setupFileLog(t, 3)
	for i := 0; i < 5; i++ {
		if err := l.Append(New(fmt.Sprintf("user-%d", i), "msg", time.Now())); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 || got[0].Name != "user-4" || got[2].Name != "user-2" {
		t.Errorf("Load = %+v, want user-4..user-2", got)
	}
}

func TestFileLogConcurrentAppends(t *testing.T) {
	l, _, _ := setupFileLog(t, 0)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Append(New(fmt.Sprintf("user-%d", i), "msg", time.Now())); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != n {
		t.Errorf("Load count = %d, want %d (lost update)", len(got), n)
	}
}

func TestSQLiteLogEmpty(t *testing.T) {
	l := setupSQLiteLog(t, 0)

	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load count = %d, want 0", len(got))
	}
}

func TestSQLiteLogRoundTrip(t *testing.T) {
	roundTrip(t, setupSQLiteLog(t, 0))
}

func TestSQLiteLogPreservesFields(t *testing.T) {
	l := setupSQLiteLog(t, 0)
	want := New("Grace", "line one\nline two", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	if err := l.Append(want); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSQLiteLogRetention(t *testing.T) {
	l := setupSQLiteLog(t, 2)
	for i := 0; i < 4; i++ {
		if err := l.Append(New(fmt.Sprintf("user-%d", i), "msg", time.Now())); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	got, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "user-3" || got[1].Name != "user-2" {
		t.Errorf("Load = %+v, want user-3, user-2", got)
	}
}

func TestSQLiteLogPragmasOnEveryConnection(t *testing.T) {
	l := setupSQLiteLog(t, 0)
	ctx := context.Background()

	// Holding the connections open forces the pool to hand out distinct ones.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		c, err := l.db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn failed: %v", err)
		}
		defer c.Close()
		conns[i] = c
	}
	for i, c := range conns {
		var timeout int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		if timeout != 5000 {
			t.Errorf("conn %d busy_timeout = %d, want 5000", i, timeout)
		}
		var mode string
		if err := c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		if mode != "wal" {
			t.Errorf("conn %d journal_mode = %q, want wal", i, mode)
		}
	}
}
