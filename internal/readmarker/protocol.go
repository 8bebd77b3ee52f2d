package readmarker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/models"
	"github.com/Sroberts03/pickup-sub000/internal/store"
)

// MarkerAPI is the server-side persistence for read markers. A
// marker of 0 means nothing read yet.
type MarkerAPI interface {
	FetchLastRead(ctx context.Context, groupID uint) (uint, error)
	ReportLastRead(ctx context.Context, groupID, messageID uint) error
}

// Sequence is the slice of the message merger the protocol needs:
// the most recent confirmed message not authored by the local user.
type Sequence interface {
	LastInbound(groupID, selfID uint) (id uint, ok bool)
}

// Protocol computes and reports the read/unread boundary per group.
// Reports are monotonic within a session: an ID at or below the
// highest already acknowledged is never sent, and overlapping
// focus/blur cycles coalesce through a small per-group state machine
// instead of relying on network call ordering.
type Protocol struct {
	api    MarkerAPI
	seq    Sequence
	local  *store.MarkerStore
	selfID uint
	log    zerolog.Logger

	mu     sync.Mutex
	groups map[uint]*markerState
}

type markerState struct {
	// floor is the highest marker acknowledged this session; a
	// report below it is a no-op.
	floor uint
	// inFlight guards the single outstanding report; a higher
	// value arriving meanwhile parks in pending and is flushed
	// when the flight completes.
	inFlight bool
	pending  uint
}

func NewProtocol(api MarkerAPI, seq Sequence, local *store.MarkerStore, selfID uint, log zerolog.Logger) *Protocol {
	return &Protocol{
		api:    api,
		seq:    seq,
		local:  local,
		selfID: selfID,
		log:    log,
		groups: make(map[uint]*markerState),
	}
}

func (p *Protocol) state(groupID uint) *markerState {
	st, ok := p.groups[groupID]
	if !ok {
		st = &markerState{}
		// Seed the session floor from the last locally persisted
		// ack so a restart cannot regress the marker.
		if id, found := p.local.Get(groupID); found {
			st.floor = id
		}
		p.groups[groupID] = st
	}
	return st
}

// LastRead fetches the server's current marker for the group. 0
// means nothing read yet. A failed fetch is treated as "no marker",
// so everything counts as unread (fail-open) — but never below the
// session floor.
func (p *Protocol) LastRead(ctx context.Context, groupID uint) uint {
	id, err := p.api.FetchLastRead(ctx, groupID)
	if err != nil {
		p.log.Warn().Err(err).Uint("group_id", groupID).Msg("read marker fetch failed, treating as unread")
		id = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state(groupID)
	if id > st.floor {
		// The server's marker counts as acknowledged.
		st.floor = id
	}
	return st.floor
}

// Report informs the server the user has read up through messageID.
// IDs at or below the session floor are skipped; while a report is
// in flight a higher ID parks and is flushed on completion.
func (p *Protocol) Report(ctx context.Context, groupID, messageID uint) error {
	p.mu.Lock()
	st := p.state(groupID)
	if messageID <= st.floor {
		p.mu.Unlock()
		return nil
	}
	if st.inFlight {
		if messageID > st.pending {
			st.pending = messageID
		}
		p.mu.Unlock()
		return nil
	}
	st.inFlight = true
	p.mu.Unlock()

	for {
		err := p.api.ReportLastRead(ctx, groupID, messageID)

		p.mu.Lock()
		if err != nil {
			// Floor stays put: the next report retries from here.
			st.inFlight = false
			st.pending = 0
			p.mu.Unlock()
			p.log.Warn().Err(err).Uint("group_id", groupID).Uint("message_id", messageID).Msg("read marker report failed")
			return err
		}

		if messageID > st.floor {
			st.floor = messageID
		}
		p.local.Advance(groupID, messageID)

		if st.pending > st.floor {
			messageID = st.pending
			st.pending = 0
			p.mu.Unlock()
			continue
		}

		st.inFlight = false
		st.pending = 0
		p.mu.Unlock()
		return nil
	}
}

// ReportFromView reports the boundary when a group's view closes:
// the most recent message not authored by the local user. Self-
// authored messages never advance your own marker, so if nothing
// inbound exists no report is sent at all.
func (p *Protocol) ReportFromView(ctx context.Context, groupID uint) error {
	id, ok := p.seq.LastInbound(groupID, p.selfID)
	if !ok {
		return nil
	}
	return p.Report(ctx, groupID, id)
}

// FirstUnread returns the ID of the first unread message: the first
// one in ID order above lastRead whose sender is not selfID. This is
// where a transcript renders its "last read" divider. ok is false
// when everything is read.
func FirstUnread(msgs []models.Message, lastRead, selfID uint) (id uint, ok bool) {
	for _, m := range msgs {
		if m.ID == 0 {
			continue
		}
		if m.ID > lastRead && m.SenderID != selfID {
			return m.ID, true
		}
	}
	return 0, false
}
