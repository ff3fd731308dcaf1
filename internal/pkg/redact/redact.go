// Package redact masks contact details before they reach logs or the mailed
// run log.
package redact

import (
	"log/slog"
	"regexp"
	"strings"
)

// Email masks an address: "john.doe@example.com" -> "jo***@example.com".
// Local parts of two characters or less are fully masked.
func Email(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

func Emails(emails []string) string {
	masked := make([]string, len(emails))
	for i, e := range emails {
		masked[i] = Email(strings.TrimSpace(e))
	}
	return strings.Join(masked, ", ")
}

// Phone keeps the last four digits: "5511999990000" -> "*********0000".
func Phone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr that masks any email address
// embedded in string attributes.
func ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	if !strings.Contains(v, "@") {
		return a
	}
	return slog.String(a.Key, emailRegex.ReplaceAllStringFunc(v, Email))
}
