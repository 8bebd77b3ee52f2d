package transport

import (
	"github.com/Sroberts03/pickup-sub000/internal/models"
)

// Frame type identifiers. Commands flow client to server, events
// server to client.
const (
	TypeJoinGroup   = "join_group"
	TypeLeaveGroup  = "leave_group"
	TypeSendMessage = "send_message"
	TypeSendTyping  = "send_typing"

	TypeJoinedGroup = "joined_group"
	TypeLeftGroup   = "left_group"
	TypeNewMessage  = "new_message"
	TypeUserTyping  = "user_typing"
	TypeError       = "error"
)

// JoinGroup asks the server to start relaying a group's events to
// this connection.
type JoinGroup struct {
	GroupID uint `json:"group_id"`
}

func (f *JoinGroup) GetType() string { return TypeJoinGroup }

type LeaveGroup struct {
	GroupID uint `json:"group_id"`
}

func (f *LeaveGroup) GetType() string { return TypeLeaveGroup }

// SendMessage carries an outgoing message. ClientID is the
// sender-generated UUID echoed back on the confirmed NewMessage.
type SendMessage struct {
	GroupID  uint   `json:"group_id"`
	ClientID string `json:"client_id"`
	Content  string `json:"content"`
}

func (f *SendMessage) GetType() string { return TypeSendMessage }

type SendTyping struct {
	GroupID  uint `json:"group_id"`
	IsTyping bool `json:"is_typing"`
}

func (f *SendTyping) GetType() string { return TypeSendTyping }

// JoinedGroup acknowledges a JoinGroup command.
type JoinedGroup struct {
	GroupID uint `json:"group_id"`
}

func (f *JoinedGroup) GetType() string { return TypeJoinedGroup }

// LeftGroup acknowledges a LeaveGroup command.
type LeftGroup struct {
	GroupID uint `json:"group_id"`
}

func (f *LeftGroup) GetType() string { return TypeLeftGroup }

// NewMessage delivers a server-confirmed message for a joined group.
type NewMessage struct {
	Message models.Message `json:"message"`
}

func (f *NewMessage) GetType() string { return TypeNewMessage }

type UserTyping struct {
	UserID   uint `json:"user_id"`
	GroupID  uint `json:"group_id"`
	IsTyping bool `json:"is_typing"`
}

func (f *UserTyping) GetType() string { return TypeUserTyping }

// ErrorFrame reports a server-side protocol failure.
type ErrorFrame struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (f *ErrorFrame) GetType() string { return TypeError }
