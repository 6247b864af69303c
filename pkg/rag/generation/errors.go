package generation

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindQuota          Kind = "QUOTA"
	KindContentBlocked Kind = "CONTENT_BLOCKED"
	KindAuth           Kind = "AUTH"
	KindUnknown        Kind = "UNKNOWN"
)

// Error is the only failure the generation layer reports.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether a retry could help.
func (e *Error) Transient() bool {
	return e.Kind == KindUnknown
}

// Classify maps a provider error onto a Kind by message substring.
// Already classified errors pass through.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	msg := err.Error()
	kind := KindUnknown
	switch {
	case strings.Contains(msg, "API key"):
		kind = KindAuth
	case strings.Contains(msg, "quota"):
		kind = KindQuota
	case strings.Contains(msg, "blocked"):
		kind = KindContentBlocked
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}
