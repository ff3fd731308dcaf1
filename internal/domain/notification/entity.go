package notification

import "context"

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Email is a multipart message with a plain-text body, an optional HTML
// alternative and attachments.
type Email struct {
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers an Email through one transport.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// Messenger delivers a short text to a technician handle (phone number,
// chat user id).
type Messenger interface {
	Send(ctx context.Context, handle, text string) error
}
