package guard

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eringen/folio/comments"
)

type memLog struct {
	items []comments.Comment
	err   error
}

func (m *memLog) Load() ([]comments.Comment, error) { return m.items, nil }

func (m *memLog) Append(c comments.Comment) error {
	if m.err != nil {
		return m.err
	}
	m.items = append([]comments.Comment{c}, m.items...)
	return nil
}

func (m *memLog) Close() error { return nil }

type fakeLimiter struct {
	allow    bool
	recorded []string
	released []string
}

func (f *fakeLimiter) Reserve(key string) bool {
	if !f.allow {
		return false
	}
	f.recorded = append(f.recorded, key)
	return true
}

func (f *fakeLimiter) Release(key string) { f.released = append(f.released, key) }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestGuard(log comments.Log, opts ...Option) *Guard {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(log, Config{}, opts...)
}

func TestSubmitAccepted(t *testing.T) {
	log := &memLog{}
	g := newTestGuard(log)

	res, err := g.Submit(Submission{Name: "  Ada  ", Message: "\tHello there\n"}, "", "203.0.113.1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Outcome != Accepted || res.Message != MsgAccepted {
		t.Fatalf("result = %+v, want accepted", res)
	}
	if res.Cookie != strconv.FormatInt(fixedNow.Unix(), 10) {
		t.Errorf("Cookie = %q, want %d", res.Cookie, fixedNow.Unix())
	}
	if len(log.items) != 1 {
		t.Fatalf("log count = %d, want 1", len(log.items))
	}
	got := log.items[0]
	if got.Name != "Ada" || got.Message != "Hello there" {
		t.Errorf("comment = %+v, want trimmed fields", got)
	}
	if got.TS != fixedNow.Unix() || got.When != "2024-05-01 12:00 UTC" {
		t.Errorf("comment time = %d %q", got.TS, got.When)
	}
}

func TestSubmitHoneypot(t *testing.T) {
	log := &memLog{}
	lim := &fakeLimiter{allow: true}
	g := newTestGuard(log, WithLimiter(lim))

	res, err := g.Submit(Submission{Name: "Bot", Message: "Buy now", Honeypot: "http://spam.example"}, "", "203.0.113.1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Outcome != Blocked || res.Message != MsgBlocked {
		t.Errorf("result = %+v, want blocked", res)
	}
	if res.Cookie != "" || len(log.items) != 0 || len(lim.recorded) != 0 {
		t.Errorf("blocked submission must not have side effects: %+v %v %v", res, log.items, lim.recorded)
	}
}

func TestSubmitRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
	}{
		{"empty name", Submission{Name: "", Message: "hi"}},
		{"blank name", Submission{Name: "   ", Message: "hi"}},
		{"empty message", Submission{Name: "Ada", Message: ""}},
		{"blank message", Submission{Name: "Ada", Message: "\n\t "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &memLog{}
			res, err := newTestGuard(log).Submit(tt.sub, "", "")
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if res.Outcome != Invalid || res.Message != MsgInvalid {
				t.Errorf("result = %+v, want invalid", res)
			}
			if len(log.items) != 0 {
				t.Errorf("invalid submission persisted")
			}
		})
	}
}

func TestSubmitTruncates(t *testing.T) {
	log := &memLog{}
	name := strings.Repeat("n", 80)
	msg := strings.Repeat("m", 2000)

	res, err := newTestGuard(log).Submit(Submission{Name: name, Message: msg}, "", "")
	if err != nil || res.Outcome != Accepted {
		t.Fatalf("Submit = %+v, %v", res, err)
	}
	if got := len(log.items[0].Name); got != 60 {
		t.Errorf("name length = %d, want 60", got)
	}
	if got := len(log.items[0].Message); got != 1000 {
		t.Errorf("message length = %d, want 1000", got)
	}
}

func TestSubmitTruncatesByCharacter(t *testing.T) {
	log := &memLog{}
	msg := strings.Repeat("é", 1500)

	if _, err := newTestGuard(log).Submit(Submission{Name: "Zoë", Message: msg}, "", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got := len([]rune(log.items[0].Message)); got != 1000 {
		t.Errorf("message runes = %d, want 1000", got)
	}
}

func TestSubmitRateLimitCookie(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   Outcome
	}{
		{"no cookie", "", Accepted},
		{"garbage cookie", "yesterday", Accepted},
		{"just now", strconv.FormatInt(fixedNow.Unix(), 10), TooFast},
		{"19 seconds ago", strconv.FormatInt(fixedNow.Unix()-19, 10), TooFast},
		{"fractional 19.5 seconds ago", strconv.FormatFloat(float64(fixedNow.Unix())-19.5, 'f', 1, 64), TooFast},
		{"exactly 20 seconds ago", strconv.FormatInt(fixedNow.Unix()-20, 10), Accepted},
		{"an hour ago", strconv.FormatInt(fixedNow.Unix()-3600, 10), Accepted},
		{"in the future", strconv.FormatInt(fixedNow.Unix()+60, 10), TooFast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &memLog{}
			res, err := newTestGuard(log).Submit(Submission{Name: "Ada", Message: "hi"}, tt.cookie, "")
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if res.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", res.Outcome, tt.want)
			}
			if tt.want == TooFast {
				if res.Message != MsgTooFast || res.Cookie != "" || len(log.items) != 0 {
					t.Errorf("too-fast submission had side effects: %+v", res)
				}
			}
		})
	}
}

func TestSubmitLimiter(t *testing.T) {
	log := &memLog{}
	lim := &fakeLimiter{allow: false}
	g := newTestGuard(log, WithLimiter(lim))

	res, err := g.Submit(Submission{Name: "Ada", Message: "hi"}, "", "203.0.113.9")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if res.Outcome != TooFast || len(log.items) != 0 {
		t.Errorf("limiter should reject: %+v", res)
	}

	lim.allow = true
	res, err = g.Submit(Submission{Name: "Ada", Message: "hi"}, "", "203.0.113.9")
	if err != nil || res.Outcome != Accepted {
		t.Fatalf("Submit = %+v, %v", res, err)
	}
	if len(lim.recorded) != 1 || lim.recorded[0] != "203.0.113.9" {
		t.Errorf("recorded = %v, want the accepted IP once", lim.recorded)
	}
}

func TestSubmitLogError(t *testing.T) {
	log := &memLog{err: errors.New("disk full")}
	lim := &fakeLimiter{allow: true}

	res, err := newTestGuard(log, WithLimiter(lim)).Submit(Submission{Name: "Ada", Message: "hi"}, "", "203.0.113.9")
	if err == nil {
		t.Fatal("expected the log error to surface")
	}
	if res.Cookie != "" {
		t.Errorf("failed append must not set a cookie: %+v", res)
	}
	if len(lim.released) != 1 || lim.released[0] != "203.0.113.9" {
		t.Errorf("released = %v, want the reserved slot returned", lim.released)
	}
}

func TestOutcomeString(t *testing.T) {
	if Accepted.String() != "accepted" || TooFast.String() != "too_fast" || Outcome(99).String() != "unknown" {
		t.Error("unexpected Outcome strings")
	}
}

type slowLog struct {
	mu    sync.Mutex
	items []comments.Comment
}

func (s *slowLog) Load() ([]comments.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, nil
}

func (s *slowLog) Append(c comments.Comment) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.items = append([]comments.Comment{c}, s.items...)
	s.mu.Unlock()
	return nil
}

func (s *slowLog) Close() error { return nil }

type slotLimiter struct {
	mu   sync.Mutex
	used map[string]int
	max  int
}

func (l *slotLimiter) Reserve(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used[key] >= l.max {
		return false
	}
	l.used[key]++
	return true
}

func (l *slotLimiter) Release(key string) {
	l.mu.Lock()
	l.used[key]--
	l.mu.Unlock()
}

func TestSubmitLimiterConcurrent(t *testing.T) {
	log := &slowLog{}
	g := newTestGuard(log, WithLimiter(&slotLimiter{used: map[string]int{}, max: 1}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Submit(Submission{Name: "Ada", Message: "hi"}, "", "203.0.113.9"); err != nil {
				t.Errorf("Submit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := log.Load(); len(got) != 1 {
		t.Fatalf("stored %d comments from one IP, want 1", len(got))
	}
}
