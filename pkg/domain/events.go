package domain

// EventKind tells which channel an inbound interaction came through.
type EventKind string

const (
	EventCommand  EventKind = "command"  // Slash command, e.g. /start
	EventCallback EventKind = "callback" // Button tap carrying a token
	EventText     EventKind = "text"     // Free text message
)

// Well-known commands.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// Event is a transport-neutral inbound interaction.
type Event struct {
	// ID optionally identifies the delivery (e.g. a Telegram update id).
	// A redelivered event with the ID of the last persisted transition is ignored.
	ID string `json:"id,omitempty"`

	Kind    EventKind `json:"kind"`
	Command string    `json:"command,omitempty"`
	Token   string    `json:"token,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// Command builds a command event. A leading slash is accepted and dropped.
func Command(name string) Event {
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return Event{Kind: EventCommand, Command: name}
}

// Callback builds a button tap event.
func Callback(token string) Event {
	return Event{Kind: EventCallback, Token: token}
}

// Text builds a free text event.
func Text(msg string) Event {
	return Event{Kind: EventText, Text: msg}
}

// WithID returns a copy of the event tagged with a delivery ID.
func (e Event) WithID(id string) Event {
	e.ID = id
	return e
}

// Button is a tappable option attached to a reply.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Reply describes what the transport should show to the user.
type Reply struct {
	Text     string     `json:"text,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	Buttons  [][]Button `json:"buttons,omitempty"`

	// NoOp means there is nothing to send (absorbed or ignored event).
	NoOp bool `json:"noop,omitempty"`
}

// NoReply is the reply for events that are absorbed without output.
var NoReply = Reply{NoOp: true}
