package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
)

// fieldErrors collects per-field messages for a ValidationError
type fieldErrors map[string]string

func (f fieldErrors) required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		f[field] = msg
		return false
	}
	return true
}

func (f fieldErrors) length(field, value string, min, max int, msg string) {
	if _, set := f[field]; set {
		return
	}
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		f[field] = msg
	}
}

func (f fieldErrors) email(field, value string) {
	if _, set := f[field]; set {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		f[field] = "Invalid email format"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return domain.NewValidationError(f)
}
