package models

import (
	"time"
)

type SendStatus string

const (
	StatusPending SendStatus = "pending"
	StatusSent    SendStatus = "sent"
	StatusFailed  SendStatus = "failed"
)

// Message is one entry in a group's transcript. Server-confirmed
// messages carry a server-assigned ID that is unique and increasing
// within the group; ID order and SentAt order agree, so ID is the
// sort and dedup key.
type Message struct {
	ID uint `json:"id"`

	// ClientID is the sender-generated UUID used to reconcile an
	// optimistic local echo with the confirmed message pushed back
	// by the server. Empty on messages authored by other users.
	ClientID string `json:"client_id,omitempty"`

	GroupID  uint      `json:"group_id"`
	SenderID uint      `json:"sender_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`

	// Status is local-only state for optimistic sends. Confirmed
	// messages are always StatusSent.
	Status SendStatus `json:"-"`
}

// Confirmed reports whether the message has a server identity.
func (m *Message) Confirmed() bool {
	return m.ID != 0
}
