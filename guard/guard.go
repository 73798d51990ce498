// Package guard screens guestbook submissions before they reach the comment
// log: a honeypot field, required fields, a cookie-based cooldown and an
// optional per-IP limiter. Each submission is judged on its own.
package guard

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/folio/comments"
)

// CookieName holds the Unix time of the client's last accepted comment.
const CookieName = "last_comment_ts"

// Messages shown to the submitter.
const (
	MsgBlocked  = "Submission blocked."
	MsgInvalid  = "Please provide your name and a message."
	MsgTooFast  = "You’re commenting too fast. Please wait a few seconds."
	MsgAccepted = "Thanks for your comment!"
)

// Outcome is the verdict on one submission.
type Outcome int

const (
	Accepted Outcome = iota
	Blocked
	Invalid
	TooFast
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Blocked:
		return "blocked"
	case Invalid:
		return "invalid"
	case TooFast:
		return "too_fast"
	default:
		return "unknown"
	}
}

// Submission is the raw form input.
type Submission struct {
	Name     string
	Message  string
	Honeypot string // hidden "website" field; humans leave it empty
}

// Result reports the verdict. Cookie is set only when Outcome is Accepted.
type Result struct {
	Outcome Outcome
	Message string
	Comment comments.Comment
	Cookie  string
}

// Limiter is an optional second throttle keyed by client IP. Reserve takes
// a slot if one is free, checking and recording in one step so concurrent
// submissions cannot overshoot the limit. Release returns a slot whose
// comment was never stored.
type Limiter interface {
	Reserve(key string) bool
	Release(key string)
}

// Config sets the guard's limits.
type Config struct {
	NameMax    int           // default 60
	MessageMax int           // default 1000
	Interval   time.Duration // default 20s
}

func (c *Config) setDefaults() {
	if c.NameMax <= 0 {
		c.NameMax = 60
	}
	if c.MessageMax <= 0 {
		c.MessageMax = 1000
	}
	if c.Interval <= 0 {
		c.Interval = 20 * time.Second
	}
}

// Guard validates submissions and appends accepted ones to a comments.Log.
type Guard struct {
	cfg     Config
	log     comments.Log
	limiter Limiter
	now     func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithLimiter adds a per-IP limiter checked after the cookie cooldown.
func WithLimiter(l Limiter) Option {
	return func(g *Guard) { g.limiter = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// New creates a Guard that writes accepted comments to log.
func New(log comments.Log, cfg Config, opts ...Option) *Guard {
	cfg.setDefaults()
	g := &Guard{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit runs the checks in order and appends the comment if all pass.
// lastCookie is the raw last_comment_ts cookie value ("" when absent).
// Only an Accepted result has side effects; a non-nil error means the log
// rejected the write and nothing was stored.
func (g *Guard) Submit(sub Submission, lastCookie, clientIP string) (Result, error) {
	if sub.Honeypot != "" {
		return Result{Outcome: Blocked, Message: MsgBlocked}, nil
	}

	entry := entry{
		Name:    truncate(strings.TrimSpace(sub.Name), g.cfg.NameMax),
		Message: truncate(strings.TrimSpace(sub.Message), g.cfg.MessageMax),
	}
	if err := entry.validate(g.cfg); err != nil {
		return Result{Outcome: Invalid, Message: MsgInvalid}, nil
	}

	now := g.now()
	if g.tooSoon(now, lastCookie) {
		return Result{Outcome: TooFast, Message: MsgTooFast}, nil
	}
	limited := g.limiter != nil && clientIP != ""
	if limited && !g.limiter.Reserve(clientIP) {
		return Result{Outcome: TooFast, Message: MsgTooFast}, nil
	}

	c := comments.New(entry.Name, entry.Message, now)
	if err := g.log.Append(c); err != nil {
		if limited {
			g.limiter.Release(clientIP)
		}
		return Result{}, err
	}
	return Result{
		Outcome: Accepted,
		Message: MsgAccepted,
		Comment: c,
		Cookie:  strconv.FormatInt(c.TS, 10),
	}, nil
}

// tooSoon compares now with the cookie timestamp. An absent or unparsable
// cookie counts as zero.
func (g *Guard) tooSoon(now time.Time, lastCookie string) bool {
	last, err := strconv.ParseFloat(strings.TrimSpace(lastCookie), 64)
	if err != nil {
		last = 0
	}
	elapsed := float64(now.Unix()) - last + float64(now.Nanosecond())/1e9
	return elapsed < g.cfg.Interval.Seconds()
}

type entry struct {
	Name    string
	Message string
}

func (e entry) validate(cfg Config) error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.RuneLength(1, cfg.NameMax)),
		validation.Field(&e.Message, validation.Required, validation.RuneLength(1, cfg.MessageMax)),
	)
}

// truncate keeps the first max characters of s.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
