// Package audit records configuration pushes in a JSON-lines log.
package audit

import (
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
)

// Event is one configuration push against one host.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Host      string        `json:"host"`
	Address   string        `json:"address,omitempty"`
	Operation string        `json:"operation"`
	Engine    string        `json:"engine,omitempty"`
	Strategy  string        `json:"strategy,omitempty"`
	Snippet   string        `json:"snippet,omitempty"`
	Lines     int           `json:"lines,omitempty"`
	Diff      string        `json:"diff,omitempty"`
	Commit    bool          `json:"commit"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter selects events in Query. Zero values match everything.
type Filter struct {
	Host        string
	User        string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Matches reports whether e passes every set criterion.
func (f Filter) Matches(e *Event) bool {
	switch {
	case f.Host != "" && e.Host != f.Host:
		return false
	case f.User != "" && e.User != f.User:
		return false
	case f.Operation != "" && e.Operation != f.Operation:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

// NewEvent creates an event stamped with a fresh ID, the current time and
// the local user.
func NewEvent(host, operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      CurrentUser(),
		Host:      host,
		Operation: operation,
	}
}

// CurrentUser returns the login name running netkit.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// WithAddress sets the dialed address
func (e *Event) WithAddress(addr string) *Event {
	e.Address = addr
	return e
}

// WithPush records how the push was performed.
func (e *Event) WithPush(engine, snippet string, lines int, commit bool) *Event {
	e.Engine = engine
	e.Snippet = snippet
	e.Lines = lines
	e.Commit = commit
	return e
}

// WithStrategy records the strategy that produced the outcome.
func (e *Event) WithStrategy(name string) *Event {
	e.Strategy = name
	return e
}

// WithDiff records the candidate diff.
func (e *Event) WithDiff(diff string) *Event {
	e.Diff = diff
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithSkip marks a push that was not attempted.
func (e *Event) WithSkip(reason string) *Event {
	e.Success = false
	e.Skipped = true
	e.Error = reason
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the push duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}
