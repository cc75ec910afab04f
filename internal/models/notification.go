package models

import "time"

// MaxNotifications bounds every account's notification log.
const MaxNotifications = 50

// Link kinds a notification can point at.
const (
	LinkVideo   = "video"
	LinkProfile = "profile"
	LinkChat    = "chat"
)

// Notification is one entry of an account's notification log.
type Notification struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	LinkType  string    `json:"link_type,omitempty"` // video, profile, chat
	LinkID    string    `json:"link_id,omitempty"`
}

// AppendNotification appends n and evicts the oldest entries so that at most
// MaxNotifications remain.
func AppendNotification(log []Notification, n Notification) []Notification {
	log = append(log, n)
	if over := len(log) - MaxNotifications; over > 0 {
		log = append([]Notification(nil), log[over:]...)
	}
	return log
}

// NewestFirst returns a reversed copy of a chronological log.
func NewestFirst(log []Notification) []Notification {
	out := make([]Notification, len(log))
	for i, n := range log {
		out[len(log)-1-i] = n
	}
	return out
}
