package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed store call.
type Kind int

const (
	// KindNetworkUnavailable means no response was received. Retryable.
	KindNetworkUnavailable Kind = iota + 1
	// KindClientError is a 4xx answer other than an expired login.
	KindClientError
	// KindAuthExpired is a 401 on an authenticated call. The credentials
	// have been cleared.
	KindAuthExpired
	// KindServerError is a 5xx answer or an unreadable response. Retryable.
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindClientError:
		return "client_error"
	case KindAuthExpired:
		return "auth_expired"
	case KindServerError:
		return "server_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Client method that fails after building the
// request. Code and Message come from the store error envelope when present.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("store: %s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("store: %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a target of the same Kind. A target with a Code also has to
// match the code, so callers can test for a specific store error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetworkUnavailable || e.Kind == KindServerError
}

var (
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrClient             = &Error{Kind: KindClientError}
	ErrAuthExpired        = &Error{Kind: KindAuthExpired}
	ErrServer             = &Error{Kind: KindServerError}
)

// IsRetryable reports whether err is a store error worth retrying.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// HasCode reports whether err is a store error carrying code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Message returns the text to show a user for err: the store message when
// there is one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		switch e.Kind {
		case KindNetworkUnavailable:
			return "Unable to connect to the store, check your connection"
		case KindAuthExpired:
			return "Session expired, please log in again"
		case KindServerError:
			return "The store is temporarily unavailable, try again in a moment"
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func kindForStatus(status int, authenticated bool) Kind {
	switch {
	case status == http.StatusUnauthorized && authenticated:
		return KindAuthExpired
	case status >= 500:
		return KindServerError
	default:
		return KindClientError
	}
}
