// Package runlog captures every log record of one run so it can be mailed to
// the operators when the run ends.
package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one captured record.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Stage   string
	Message string
	Attrs   []slog.Attr
}

// Recorder is a slog.Handler that keeps every record at or above its level and
// forwards records to next. It is safe for concurrent use; derived handlers
// share the same entry buffer.
type Recorder struct {
	store   *store
	next    slog.Handler
	level   slog.Leveler
	attrs   []slog.Attr
	groups  []string
	replace func([]string, slog.Attr) slog.Attr
}

type store struct {
	mu      sync.Mutex
	entries []Entry
}

type Option func(*Recorder)

// WithReplaceAttr applies fn to captured attributes, e.g. to mask addresses.
func WithReplaceAttr(fn func([]string, slog.Attr) slog.Attr) Option {
	return func(r *Recorder) { r.replace = fn }
}

func NewRecorder(next slog.Handler, level slog.Leveler, opts ...Option) *Recorder {
	if level == nil {
		level = slog.LevelDebug
	}
	r := &Recorder{store: &store{}, next: next, level: level}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= r.level.Level() {
		return true
	}
	return r.next != nil && r.next.Enabled(ctx, level)
}

func (r *Recorder) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level >= r.level.Level() {
		r.capture(rec)
	}
	if r.next != nil && r.next.Enabled(ctx, rec.Level) {
		return r.next.Handle(ctx, rec)
	}
	return nil
}

func (r *Recorder) capture(rec slog.Record) {
	entry := Entry{Time: rec.Time, Level: rec.Level, Message: rec.Message}

	add := func(a slog.Attr, prefix string) {
		if r.replace != nil {
			a = r.replace(r.groups, a)
		}
		if a.Equal(slog.Attr{}) {
			return
		}
		if a.Key == "stage" && prefix == "" {
			entry.Stage = a.Value.String()
			return
		}
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		entry.Attrs = append(entry.Attrs, a)
	}

	// Handler attrs were qualified when they were added.
	for _, a := range r.attrs {
		add(a, "")
	}
	prefix := strings.Join(r.groups, ".")
	rec.Attrs(func(a slog.Attr) bool {
		add(a, prefix)
		return true
	})

	r.store.mu.Lock()
	r.store.entries = append(r.store.entries, entry)
	r.store.mu.Unlock()
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *r
	clone.attrs = append(append([]slog.Attr{}, r.attrs...), r.qualify(attrs)...)
	if r.next != nil {
		clone.next = r.next.WithAttrs(attrs)
	}
	return &clone
}

func (r *Recorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	clone := *r
	clone.groups = append(append([]string{}, r.groups...), name)
	if r.next != nil {
		clone.next = r.next.WithGroup(name)
	}
	return &clone
}

// qualify prefixes handler-level attrs with the current group path.
func (r *Recorder) qualify(attrs []slog.Attr) []slog.Attr {
	if len(r.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(r.groups, ".")
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		a.Key = prefix + "." + a.Key
		out[i] = a
	}
	return out
}

// Entries returns a copy of the captured entries in arrival order.
func (r *Recorder) Entries() []Entry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]Entry(nil), r.store.entries...)
}

// Count returns how many entries are at or above level.
func (r *Recorder) Count(level slog.Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level >= level {
			n++
		}
	}
	return n
}

// Render formats the entries as one line each:
//
//	2024-03-05T07:00:01-03:00 WARN  [normalize] Skipping invalid attendance row row=4 reason="..."
func (r *Recorder) Render() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		stage := e.Stage
		if stage == "" {
			stage = "run"
		}
		fmt.Fprintf(&b, "%s %-5s [%s] %s", e.Time.Format(time.RFC3339), e.Level.String(), stage, e.Message)
		for _, a := range e.Attrs {
			fmt.Fprintf(&b, " %s=%s", a.Key, formatValue(a.Value))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
