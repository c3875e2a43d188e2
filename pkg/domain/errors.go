package domain

import "errors"

// ErrSessionNotFound is returned when no session is stored for a user ID.
// It is not a failure: the user simply has not started a conversation yet.
var ErrSessionNotFound = errors.New("session not found")

// ErrUpstream is returned when a remote collaborator (catalog, cart, customers)
// fails or is unreachable.
var ErrUpstream = errors.New("upstream unavailable")

// ErrNotFound is returned when a referenced product or cart line does not exist.
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable is returned when the session store cannot be read or written.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrMalformedEvent is returned when a callback token cannot be parsed.
var ErrMalformedEvent = errors.New("malformed event")
