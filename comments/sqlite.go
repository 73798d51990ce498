package comments

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteLog stores comments in a SQLite table. Insertion order (the row id)
// defines newest-first.
type SQLiteLog struct {
	db        *sql.DB
	retention int
}

// NewSQLiteLog opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the comments table.
func NewSQLiteLog(path string, retention int) (*SQLiteLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them. WAL lets
	// page reads proceed during an append; busy_timeout makes a second
	// writer wait instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	l := &SQLiteLog{db: db, retention: retention}
	if err := l.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Close closes the underlying database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func (l *SQLiteLog) ensureSchema() error {
	_, err := l.db.Exec(`
CREATE TABLE IF NOT EXISTS comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    message TEXT NOT NULL,
    ts INTEGER NOT NULL,
    when_text TEXT NOT NULL
);
`)
	return err
}

// Load returns all comments, newest first.
func (l *SQLiteLog) Load() ([]Comment, error) {
	rows, err := l.db.Query(`SELECT name, message, ts, when_text FROM comments ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var items []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.Name, &c.Message, &c.TS, &c.When); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Append inserts c and applies the retention limit in one transaction.
func (l *SQLiteLog) Append(c Comment) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO comments (name, message, ts, when_text) VALUES (?, ?, ?, ?)`,
		c.Name, c.Message, c.TS, c.When); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	if l.retention > 0 {
		if _, err := tx.Exec(`DELETE FROM comments WHERE id NOT IN (SELECT id FROM comments ORDER BY id DESC LIMIT ?)`, l.retention); err != nil {
			return fmt.Errorf("trim comments: %w", err)
		}
	}
	return tx.Commit()
}
