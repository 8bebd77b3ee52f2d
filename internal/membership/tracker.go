package membership

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/transport"
)

// Conn is the slice of the connection manager the tracker needs:
// state observation, command writes, and the error event channel.
type Conn interface {
	IsConnected() bool
	Send(f transport.Frame) error
	EmitError(code, message string)
}

// Tracker owns the transport-level membership set: the group IDs the
// live connection will relay events for. Membership mutates only on
// server acknowledgment and is wiped by a disconnect; durable group
// membership lives on the server and is not this tracker's concern.
type Tracker struct {
	conn Conn
	log  zerolog.Logger

	mu           sync.Mutex
	joined       map[uint]struct{}
	pendingJoin  map[uint]struct{}
	pendingLeave map[uint]struct{}
}

func NewTracker(conn Conn, log zerolog.Logger) *Tracker {
	return &Tracker{
		conn:         conn,
		log:          log,
		joined:       make(map[uint]struct{}),
		pendingJoin:  make(map[uint]struct{}),
		pendingLeave: make(map[uint]struct{}),
	}
}

// Join requests the transport-level join. Membership is granted only
// when the server acknowledges via HandleJoined. Re-requesting while
// the same join is pending, or when already a member, is a no-op.
func (t *Tracker) Join(groupID uint) {
	if !t.conn.IsConnected() {
		t.log.Error().Uint("group_id", groupID).Msg("join rejected, not connected")
		t.conn.EmitError("not_connected", fmt.Sprintf("cannot join group %d: not connected", groupID))
		return
	}

	t.mu.Lock()
	if _, ok := t.joined[groupID]; ok {
		t.mu.Unlock()
		return
	}
	if _, ok := t.pendingJoin[groupID]; ok {
		t.mu.Unlock()
		return
	}
	t.pendingJoin[groupID] = struct{}{}
	t.mu.Unlock()

	if err := t.conn.Send(&transport.JoinGroup{GroupID: groupID}); err != nil {
		t.mu.Lock()
		delete(t.pendingJoin, groupID)
		t.mu.Unlock()
		t.conn.EmitError("join_failed", fmt.Sprintf("join group %d: %v", groupID, err))
	}
}

// Leave requests the transport-level leave, symmetric to Join.
func (t *Tracker) Leave(groupID uint) {
	if !t.conn.IsConnected() {
		t.log.Error().Uint("group_id", groupID).Msg("leave rejected, not connected")
		t.conn.EmitError("not_connected", fmt.Sprintf("cannot leave group %d: not connected", groupID))
		return
	}

	t.mu.Lock()
	_, member := t.joined[groupID]
	_, joining := t.pendingJoin[groupID]
	if !member && !joining {
		t.mu.Unlock()
		return
	}
	if _, ok := t.pendingLeave[groupID]; ok {
		t.mu.Unlock()
		return
	}
	t.pendingLeave[groupID] = struct{}{}
	t.mu.Unlock()

	if err := t.conn.Send(&transport.LeaveGroup{GroupID: groupID}); err != nil {
		t.mu.Lock()
		delete(t.pendingLeave, groupID)
		t.mu.Unlock()
		t.conn.EmitError("leave_failed", fmt.Sprintf("leave group %d: %v", groupID, err))
	}
}

// HandleJoined records a server join acknowledgment.
func (t *Tracker) HandleJoined(groupID uint) {
	t.mu.Lock()
	delete(t.pendingJoin, groupID)
	t.joined[groupID] = struct{}{}
	t.mu.Unlock()
	t.log.Info().Uint("group_id", groupID).Msg("joined group")
}

// HandleLeft records a server leave acknowledgment.
func (t *Tracker) HandleLeft(groupID uint) {
	t.mu.Lock()
	delete(t.pendingLeave, groupID)
	delete(t.joined, groupID)
	t.mu.Unlock()
	t.log.Info().Uint("group_id", groupID).Msg("left group")
}

// Clear wipes the membership set. Called on disconnect; the owner of
// the session re-joins groups of interest after reconnecting.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.joined = make(map[uint]struct{})
	t.pendingJoin = make(map[uint]struct{})
	t.pendingLeave = make(map[uint]struct{})
	t.mu.Unlock()
}

func (t *Tracker) IsMember(groupID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.joined[groupID]
	return ok
}

// Groups returns a snapshot of the current membership set.
func (t *Tracker) Groups() []uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uint, 0, len(t.joined))
	for id := range t.joined {
		ids = append(ids, id)
	}
	return ids
}

// SendMessage sends a message to a joined group. Returns the client
// ID assigned to the send (for reconciling the optimistic echo), or
// "" when the send was rejected; rejections surface as error events.
func (t *Tracker) SendMessage(groupID uint, content string) string {
	if !t.IsMember(groupID) {
		t.conn.EmitError("not_a_member", fmt.Sprintf("not a member of group %d", groupID))
		return ""
	}

	clientID := uuid.NewString()
	if err := t.conn.Send(&transport.SendMessage{
		GroupID:  groupID,
		ClientID: clientID,
		Content:  content,
	}); err != nil {
		t.conn.EmitError("send_failed", fmt.Sprintf("send to group %d: %v", groupID, err))
		return ""
	}
	return clientID
}

// SendTyping sends the ephemeral typing signal. Gated like sends,
// but a transport write failure is only logged: typing indicators
// are not worth an error event.
func (t *Tracker) SendTyping(groupID uint, isTyping bool) {
	if !t.IsMember(groupID) {
		t.conn.EmitError("not_a_member", fmt.Sprintf("not a member of group %d", groupID))
		return
	}

	if err := t.conn.Send(&transport.SendTyping{GroupID: groupID, IsTyping: isTyping}); err != nil {
		t.log.Warn().Err(err).Uint("group_id", groupID).Msg("typing signal dropped")
	}
}
