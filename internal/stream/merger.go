package stream

import (
	"sort"
	"sync"

	"github.com/Sroberts03/pickup-sub000/internal/models"
)

// Merger maintains, per group, one strictly-ordered-by-ID,
// duplicate-free message sequence: the union of the fetched history
// page and everything pushed live while the group is open. Message
// ID is the authoritative order and dedup key; arrival order is not
// trusted.
type Merger struct {
	mu     sync.RWMutex
	groups map[uint]*sequence
}

// sequence keeps confirmed messages sorted by ID plus any optimistic
// local echoes that are still awaiting server confirmation.
type sequence struct {
	msgs    []models.Message
	seen    map[uint]struct{}
	pending []models.Message
}

func NewMerger() *Merger {
	return &Merger{groups: make(map[uint]*sequence)}
}

func (m *Merger) seq(groupID uint) *sequence {
	s, ok := m.groups[groupID]
	if !ok {
		s = &sequence{seen: make(map[uint]struct{})}
		m.groups[groupID] = s
	}
	return s
}

// SetHistory seeds a group's sequence from a fetched history page,
// replacing whatever was there. Called once per open of the group's
// view; the page is sorted and deduped before it is trusted.
func (m *Merger) SetHistory(groupID uint, msgs []models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.seq(groupID)
	s.msgs = s.msgs[:0]
	s.seen = make(map[uint]struct{}, len(msgs))
	s.pending = nil

	for _, msg := range msgs {
		if msg.ID == 0 {
			continue
		}
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		msg.Status = models.StatusSent
		s.seen[msg.ID] = struct{}{}
		s.msgs = append(s.msgs, msg)
	}

	sort.Slice(s.msgs, func(i, j int) bool { return s.msgs[i].ID < s.msgs[j].ID })
}

// Push merges one live message into its group's sequence. A
// duplicate ID is a no-op; an out-of-order ID is placed at its
// sorted position. Returns whether the sequence changed.
func (m *Merger) Push(msg models.Message) bool {
	if msg.ID == 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.seq(msg.GroupID)
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}

	// A confirmed push carrying our client ID supersedes the
	// optimistic echo for that send.
	if msg.ClientID != "" {
		s.dropPending(msg.ClientID)
	}

	msg.Status = models.StatusSent
	s.seen[msg.ID] = struct{}{}

	i := sort.Search(len(s.msgs), func(i int) bool { return s.msgs[i].ID > msg.ID })
	s.msgs = append(s.msgs, models.Message{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = msg

	return true
}

// AddPending appends an optimistic local echo for an in-flight send.
func (m *Merger) AddPending(groupID uint, msg models.Message) {
	msg.Status = models.StatusPending
	m.mu.Lock()
	s := m.seq(groupID)
	s.pending = append(s.pending, msg)
	m.mu.Unlock()
}

// MarkFailed flags an optimistic echo whose send did not go through,
// so the UI can show it as failed rather than silently dropping it.
func (m *Merger) MarkFailed(groupID uint, clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.groups[groupID]
	if !ok {
		return
	}
	for i := range s.pending {
		if s.pending[i].ClientID == clientID {
			s.pending[i].Status = models.StatusFailed
			return
		}
	}
}

// Messages returns a copy of the group's sequence: confirmed
// messages in ID order, then any unconfirmed local echoes in send
// order.
func (m *Merger) Messages(groupID uint) []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.groups[groupID]
	if !ok {
		return nil
	}

	out := make([]models.Message, 0, len(s.msgs)+len(s.pending))
	out = append(out, s.msgs...)
	out = append(out, s.pending...)
	return out
}

// LastInbound returns the highest confirmed message ID in the group
// not authored by selfID, which is the boundary a read report may
// advance to. ok is false when no such message exists.
func (m *Merger) LastInbound(groupID, selfID uint) (id uint, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, found := m.groups[groupID]
	if !found {
		return 0, false
	}
	for i := len(s.msgs) - 1; i >= 0; i-- {
		if s.msgs[i].SenderID != selfID {
			return s.msgs[i].ID, true
		}
	}
	return 0, false
}

// Reset drops a group's sequence entirely.
func (m *Merger) Reset(groupID uint) {
	m.mu.Lock()
	delete(m.groups, groupID)
	m.mu.Unlock()
}

func (s *sequence) dropPending(clientID string) {
	for i := range s.pending {
		if s.pending[i].ClientID == clientID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
