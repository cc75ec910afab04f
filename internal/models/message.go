package models

import (
	"time"
)

// threadSeparator cannot occur in a handle, so thread keys are unambiguous.
const threadSeparator = ":"

// Message is one direct message inside a two-party thread.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"chat_id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	VideoID   string    `json:"video_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// ThreadKey returns the order-independent key of the thread between a and b.
func ThreadKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + threadSeparator + b
}

// SendMessageRequest defines the request body for sending a direct message
type SendMessageRequest struct {
	Text    string `json:"text" validate:"required_without=VideoID,max=1000"`
	VideoID string `json:"video_id,omitempty"`
}
