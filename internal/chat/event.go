// Package chat routes inbound chat events to the booking and edit
// wizards and renders the bot's menus. All events pass through a single
// dispatcher goroutine, so each one (including its durable write)
// finishes before the next starts.
package chat

// EventKind classifies an inbound chat event.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
	EventChoice  EventKind = "choice"
)

// Event is one inbound message from a chat connection.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`

	// Command holds the slash command without arguments ("/start").
	Command string `json:"command,omitempty"`
	// Text holds the raw message body for text events.
	Text string `json:"text,omitempty"`
	// ChoiceID holds the pressed button's callback payload.
	ChoiceID string `json:"choice_id,omitempty"`
}
