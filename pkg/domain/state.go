package domain

import "time"

// State is the conversation step a user is currently in.
type State string

const (
	StateStart        State = "start"         // Initial, nothing shown yet
	StateMenuShown    State = "menu_shown"    // Product list on screen
	StateProductShown State = "product_shown" // Product card with quantity buttons
	StateCartShown    State = "cart_shown"    // Cart summary with remove buttons
	StateWaitingEmail State = "waiting_email" // Waiting for the user to type an email
	StateEnd          State = "end"           // Conversation finished
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateStart, StateMenuShown, StateProductShown, StateCartShown, StateWaitingEmail, StateEnd:
		return true
	}
	return false
}

// Session is the persisted conversation record of a single user.
type Session struct {
	// UserID is the opaque, stable identity of the user (e.g. a chat id).
	UserID string `json:"user_id"`

	// State is the step the user is in.
	State State `json:"state"`

	// UpdatedAt is stamped on every persisted transition. Informational only.
	UpdatedAt time.Time `json:"updated_at"`

	// LastEventID is the ID of the last event whose transition was persisted.
	// Empty when the transport does not supply event IDs.
	LastEventID string `json:"last_event_id,omitempty"`

	// Sealed holds an encrypted copy of the session when written through
	// the encryption store middleware. Empty for plain sessions.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session for userID positioned at the initial state.
func NewSession(userID string) *Session {
	return &Session{
		UserID: userID,
		State:  StateStart,
	}
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
