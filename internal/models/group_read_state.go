package models

// GroupReadState mirrors the server's per-user read progress in a
// group. LastReadMessageID is monotonic: the highest message ID the
// user has acknowledged reading. Zero means nothing read yet.
type GroupReadState struct {
	GroupID           uint `json:"group_id"`
	LastReadMessageID uint `json:"last_read_message_id"`
}
