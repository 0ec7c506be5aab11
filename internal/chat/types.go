// Package chat parses WhatsApp chat export text into ordered messages.
package chat

import (
	"fmt"
	"time"
)

// Message is a single chat message from a WhatsApp export. Immutable once
// parsed; order follows the export and is never re-sorted.
type Message struct {
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	// Index is the message's position within the export, starting at 0.
	Index int `json:"index"`
}

// ParseError reports malformed chat export input. It is a client error: the
// input did not match the expected per-line timestamp/sender/message format.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > 80 {
		text = text[:80] + "..."
	}
	return fmt.Sprintf("chat: line %d does not match WhatsApp export format: %q", e.Line, text)
}
