package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/connection"
	"github.com/Sroberts03/pickup-sub000/internal/membership"
	"github.com/Sroberts03/pickup-sub000/internal/models"
	"github.com/Sroberts03/pickup-sub000/internal/readmarker"
	"github.com/Sroberts03/pickup-sub000/internal/store"
	"github.com/Sroberts03/pickup-sub000/internal/stream"
	"github.com/Sroberts03/pickup-sub000/internal/unread"
	"github.com/Sroberts03/pickup-sub000/internal/validation"
)

// API is everything the session needs from the REST collaborator.
// *api.Client satisfies it.
type API interface {
	FetchGroupMessages(ctx context.Context, groupID uint) ([]models.Message, error)
	FetchGroupMembers(ctx context.Context, groupID uint) ([]models.Profile, error)
	FetchUser(ctx context.Context, userID uint) (*models.Profile, error)
	FetchLastRead(ctx context.Context, groupID uint) (uint, error)
	ReportLastRead(ctx context.Context, groupID, messageID uint) error
	FetchUnreadStatus(ctx context.Context, groupID uint) (bool, error)
}

// ChatSession wires the sync core together for one logged-in user:
// the connection manager feeds the membership tracker and message
// merger, the read-marker protocol consumes the merged stream, and
// the aggregator rolls unread state up for the navigation badge.
// Components keep exclusive ownership of their state; the session
// only routes between them.
type ChatSession struct {
	conn     *connection.Manager
	tracker  *membership.Tracker
	merger   *stream.Merger
	resolver *stream.Resolver
	markers  *readmarker.Protocol
	badges   *unread.Aggregator
	api      API
	self     models.Profile
	log      zerolog.Logger

	mu        sync.Mutex
	listeners *connection.EventListeners
}

func NewChatSession(conn *connection.Manager, apiClient API, self models.Profile, local *store.MarkerStore, log zerolog.Logger) *ChatSession {
	merger := stream.NewMerger()

	s := &ChatSession{
		conn:     conn,
		tracker:  membership.NewTracker(conn, log),
		merger:   merger,
		resolver: stream.NewResolver(apiClient, self, log),
		markers:  readmarker.NewProtocol(apiClient, merger, local, self.ID, log),
		badges:   unread.NewAggregator(apiClient, log),
		api:      apiClient,
		self:     self,
		log:      log,
	}

	conn.SetEventListeners(s.routingListeners())
	return s
}

// SetEventListeners replaces the application's listener set. The
// session keeps the connection's single slot for itself and forwards
// after routing, preserving replace-not-merge semantics for the app.
func (s *ChatSession) SetEventListeners(l *connection.EventListeners) {
	s.mu.Lock()
	s.listeners = l
	s.mu.Unlock()
}

func (s *ChatSession) RemoveEventListeners() {
	s.SetEventListeners(nil)
}

func (s *ChatSession) app() *connection.EventListeners {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners
}

// routingListeners updates the owning components before the
// application hears about an event, so a callback always observes
// post-event state.
func (s *ChatSession) routingListeners() *connection.EventListeners {
	return &connection.EventListeners{
		OnConnected: func() {
			if l := s.app(); l != nil && l.OnConnected != nil {
				l.OnConnected()
			}
		},
		OnDisconnected: func() {
			// Transport membership does not survive a connection
			// cycle; groups of interest are re-joined on reconnect.
			s.tracker.Clear()
			if l := s.app(); l != nil && l.OnDisconnected != nil {
				l.OnDisconnected()
			}
		},
		OnJoinedGroup: func(groupID uint) {
			s.tracker.HandleJoined(groupID)
			if l := s.app(); l != nil && l.OnJoinedGroup != nil {
				l.OnJoinedGroup(groupID)
			}
		},
		OnLeftGroup: func(groupID uint) {
			s.tracker.HandleLeft(groupID)
			if l := s.app(); l != nil && l.OnLeftGroup != nil {
				l.OnLeftGroup(groupID)
			}
		},
		OnNewMessage: func(msg models.Message) {
			// A duplicate delivery merges to nothing and is not
			// re-announced.
			if !s.merger.Push(msg) {
				return
			}
			if l := s.app(); l != nil && l.OnNewMessage != nil {
				l.OnNewMessage(msg)
			}
		},
		OnUserTyping: func(userID, groupID uint, isTyping bool) {
			if l := s.app(); l != nil && l.OnUserTyping != nil {
				l.OnUserTyping(userID, groupID, isTyping)
			}
		},
		OnError: func(code, message string) {
			if l := s.app(); l != nil && l.OnError != nil {
				l.OnError(code, message)
			}
		},
	}
}

func (s *ChatSession) Connect(credential string) {
	s.conn.Connect(credential)
}

func (s *ChatSession) Disconnect() {
	s.conn.Disconnect()
}

func (s *ChatSession) IsConnected() bool {
	return s.conn.IsConnected()
}

// JoinGroup requests transport-level membership for a group.
func (s *ChatSession) JoinGroup(groupID uint) {
	s.tracker.Join(groupID)
}

// OpenGroup prepares a group's view: requests membership, seeds the
// merged sequence from the history page, and fetches the read marker
// as of this focus. Returns the merged sequence and the marker. A
// failed history fetch is the caller's to handle; it is not retried
// here.
func (s *ChatSession) OpenGroup(ctx context.Context, groupID uint) ([]models.Message, uint, error) {
	s.tracker.Join(groupID)

	history, err := s.api.FetchGroupMessages(ctx, groupID)
	if err != nil {
		return nil, 0, err
	}
	s.merger.SetHistory(groupID, history)

	lastRead := s.markers.LastRead(ctx, groupID)
	return s.merger.Messages(groupID), lastRead, nil
}

// CloseGroup ends a group's view: reports the read boundary and
// releases transport membership.
func (s *ChatSession) CloseGroup(ctx context.Context, groupID uint) {
	if err := s.markers.ReportFromView(ctx, groupID); err != nil {
		s.log.Warn().Err(err).Uint("group_id", groupID).Msg("read report on close failed")
	}
	s.tracker.Leave(groupID)
}

// Focus re-fetches the marker when a group view regains focus.
func (s *ChatSession) Focus(ctx context.Context, groupID uint) uint {
	return s.markers.LastRead(ctx, groupID)
}

// Blur reports the read boundary when a group view loses focus
// without closing.
func (s *ChatSession) Blur(ctx context.Context, groupID uint) {
	if err := s.markers.ReportFromView(ctx, groupID); err != nil {
		s.log.Warn().Err(err).Uint("group_id", groupID).Msg("read report on blur failed")
	}
}

// SendMessage sends to a joined group and records an optimistic echo
// in the merged sequence. Returns the client ID of the send, or ""
// when it was rejected (the rejection surfaces as an error event).
func (s *ChatSession) SendMessage(groupID uint, content string) string {
	content = validation.TrimAndLimit(content, validation.MaxMessageLength())
	if content == "" {
		s.conn.EmitError("empty_message", "message content cannot be empty")
		return ""
	}

	clientID := s.tracker.SendMessage(groupID, content)
	if clientID == "" {
		return ""
	}

	s.merger.AddPending(groupID, models.Message{
		ClientID: clientID,
		GroupID:  groupID,
		SenderID: s.self.ID,
		Content:  content,
		SentAt:   time.Now(),
	})
	return clientID
}

func (s *ChatSession) SendTyping(groupID uint, isTyping bool) {
	s.tracker.SendTyping(groupID, isTyping)
}

// Messages returns the merged sequence snapshot for a group.
func (s *ChatSession) Messages(groupID uint) []models.Message {
	return s.merger.Messages(groupID)
}

// FirstUnread locates the "last read" divider for a transcript.
func (s *ChatSession) FirstUnread(groupID, lastRead uint) (uint, bool) {
	return readmarker.FirstUnread(s.merger.Messages(groupID), lastRead, s.self.ID)
}

// ResolveSender resolves a sender ID to a display profile, nil when
// unresolved.
func (s *ChatSession) ResolveSender(ctx context.Context, senderID uint) *models.Profile {
	return s.resolver.Resolve(ctx, senderID)
}

// HasAnyUnread recomputes the cross-group badge signal.
func (s *ChatSession) HasAnyUnread(ctx context.Context, groupIDs []uint) bool {
	return s.badges.HasAnyUnread(ctx, groupIDs)
}
