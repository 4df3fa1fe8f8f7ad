package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	// ErrUnauthenticated is returned for a zero subject or one the resolver
	// does not know.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the subject is known but lacks the
	// permission or fails the resource policy.
	ErrForbidden = errors.New("forbidden")
)
