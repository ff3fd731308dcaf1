// Package testutil holds in-memory stand-ins for the job's external systems.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/attendance"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
)

// Mailer records every message. Err, when set, is returned by Send after
// recording.
type Mailer struct {
	mu   sync.Mutex
	Sent []notification.Email
	Err  error
	// ErrFor fails only messages whose subject matches.
	ErrFor map[string]error
}

func (m *Mailer) Send(ctx context.Context, msg notification.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	if err, ok := m.ErrFor[msg.Subject]; ok {
		return err
	}
	return m.Err
}

func (m *Mailer) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	for i, msg := range m.Sent {
		out[i] = msg.Subject
	}
	return out
}

type Message struct {
	Handle string
	Text   string
}

// Messenger records alerts. Handles listed in Fail return their error.
type Messenger struct {
	mu   sync.Mutex
	Sent []Message
	Fail map[string]error
}

func (m *Messenger) Send(ctx context.Context, handle, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Fail[handle]; ok {
		return err
	}
	m.Sent = append(m.Sent, Message{Handle: handle, Text: text})
	return nil
}

// Source returns fixed rows and an optional error.
type Source struct {
	Records []attendance.RawRecord
	Err     error
	Days    []time.Time
}

func (s *Source) Fetch(ctx context.Context, day time.Time) ([]attendance.RawRecord, error) {
	s.Days = append(s.Days, day)
	return s.Records, s.Err
}
