// Package comments persists guestbook entries newest-first. Two backends share
// the Log interface: a JSON file rewritten atomically on every append, and a
// SQLite table.
package comments

import "time"

// WhenLayout is the human-readable form of a comment timestamp.
const WhenLayout = "2006-01-02 15:04 UTC"

// DisplayLimit caps how many comments the page and the API show.
const DisplayLimit = 200

// Comment is one guestbook entry.
type Comment struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	TS      int64  `json:"ts"`
	When    string `json:"when"`
}

// New builds a Comment stamped with at, in UTC.
func New(name, message string, at time.Time) Comment {
	at = at.UTC()
	return Comment{
		Name:    name,
		Message: message,
		TS:      at.Unix(),
		When:    at.Format(WhenLayout),
	}
}

// Log is an append-only, newest-first comment list.
type Log interface {
	// Load returns every stored comment, newest first. A missing store is an
	// empty list. An unreadable store returns an empty list together with a
	// *content.Error of kind Malformed.
	Load() ([]Comment, error)
	// Append stores c ahead of every existing comment.
	Append(c Comment) error
	Close() error
}

// Latest returns at most n comments from the front of items.
func Latest(items []Comment, n int) []Comment {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Logger receives warnings about recovered storage problems.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}
