package connection

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/auth"
	"github.com/Sroberts03/pickup-sub000/internal/models"
	"github.com/Sroberts03/pickup-sub000/internal/transport"
)

// EventListeners is the single listener slot for connection-level
// events. One screen owns the socket at a time, so registration
// replaces the whole set rather than accumulating handlers. Any nil
// field is simply skipped.
type EventListeners struct {
	OnConnected    func()
	OnDisconnected func()
	OnJoinedGroup  func(groupID uint)
	OnLeftGroup    func(groupID uint)
	OnNewMessage   func(msg models.Message)
	OnUserTyping   func(userID, groupID uint, isTyping bool)
	OnError        func(code, message string)
}

// TransportFactory builds a fresh transport per connection attempt.
type TransportFactory func() transport.Transport

// Manager owns the persistent connection and its state. All other
// components observe ConnectionState through it; none mutate it.
type Manager struct {
	url          string
	newTransport TransportFactory
	log          zerolog.Logger

	mu        sync.Mutex
	state     models.ConnectionState
	tr        transport.Transport
	listeners *EventListeners
}

func NewManager(url string, factory TransportFactory, log zerolog.Logger) *Manager {
	return &Manager{
		url:          url,
		newTransport: factory,
		log:          log,
	}
}

// SetEventListeners replaces the active listener set.
func (m *Manager) SetEventListeners(l *EventListeners) {
	m.mu.Lock()
	m.listeners = l
	m.mu.Unlock()
}

// RemoveEventListeners clears the active listener set.
func (m *Manager) RemoveEventListeners() {
	m.SetEventListeners(nil)
}

// Connect starts connecting with the given bearer credential. It
// never returns an error: failures surface through the error and
// disconnected events. Calling it while already connected or
// connecting is a logged no-op.
func (m *Manager) Connect(credential string) {
	m.mu.Lock()
	if m.state != models.Disconnected {
		state := m.state
		m.mu.Unlock()
		m.log.Info().Stringer("state", state).Msg("connect ignored, connection already active")
		return
	}

	if auth.Expired(credential, time.Now()) {
		m.mu.Unlock()
		m.log.Warn().Msg("connect refused, credential expired")
		m.EmitError("credential_expired", "credential is expired, log in again")
		return
	}

	tr := m.newTransport()
	m.state = models.Connecting
	m.tr = tr
	m.mu.Unlock()

	tr.Dial(m.url, credential, &trHandler{m: m, tr: tr})
}

// Disconnect tears the connection down. Safe to call when already
// disconnected. Membership does not survive this; it is cleared by
// the disconnected event.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	tr := m.tr
	wasActive := m.state != models.Disconnected
	m.state = models.Disconnected
	m.tr = nil
	m.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	if wasActive {
		m.emitDisconnected()
	}
}

// IsConnected is a synchronous snapshot of the connection state.
func (m *Manager) IsConnected() bool {
	return m.State() == models.Connected
}

func (m *Manager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send writes one command frame to the live connection.
func (m *Manager) Send(f transport.Frame) error {
	m.mu.Lock()
	tr := m.tr
	m.mu.Unlock()

	if tr == nil {
		return errNotConnected
	}
	return tr.Send(f)
}

// EmitError surfaces a protocol or transport failure through the
// listener slot. Errors are events here, never panics.
func (m *Manager) EmitError(code, message string) {
	l := m.currentListeners()
	if l != nil && l.OnError != nil {
		l.OnError(code, message)
	}
}

func (m *Manager) currentListeners() *EventListeners {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listeners
}

func (m *Manager) emitDisconnected() {
	l := m.currentListeners()
	if l != nil && l.OnDisconnected != nil {
		l.OnDisconnected()
	}
}

// handleUp runs when the transport establishes (or re-establishes)
// a connection. Stale transports are ignored.
func (m *Manager) handleUp(tr transport.Transport) {
	m.mu.Lock()
	if m.tr != tr {
		m.mu.Unlock()
		return
	}
	m.state = models.Connected
	m.mu.Unlock()

	m.log.Info().Msg("connection established")

	l := m.currentListeners()
	if l != nil && l.OnConnected != nil {
		l.OnConnected()
	}
}

func (m *Manager) handleDown(tr transport.Transport, err error) {
	m.mu.Lock()
	if m.tr != tr {
		// Already replaced or deliberately disconnected.
		m.mu.Unlock()
		return
	}
	m.state = models.Disconnected
	m.tr = nil
	m.mu.Unlock()

	if err != nil {
		m.log.Warn().Err(err).Msg("connection lost")
		m.EmitError("transport_failed", err.Error())
	}
	m.emitDisconnected()
}

func (m *Manager) handleFrame(tr transport.Transport, f transport.Frame) {
	m.mu.Lock()
	stale := m.tr != tr
	m.mu.Unlock()
	if stale {
		return
	}

	l := m.currentListeners()
	if l == nil {
		return
	}

	switch frame := f.(type) {
	case *transport.JoinedGroup:
		if l.OnJoinedGroup != nil {
			l.OnJoinedGroup(frame.GroupID)
		}
	case *transport.LeftGroup:
		if l.OnLeftGroup != nil {
			l.OnLeftGroup(frame.GroupID)
		}
	case *transport.NewMessage:
		if l.OnNewMessage != nil {
			l.OnNewMessage(frame.Message)
		}
	case *transport.UserTyping:
		if l.OnUserTyping != nil {
			l.OnUserTyping(frame.UserID, frame.GroupID, frame.IsTyping)
		}
	case *transport.ErrorFrame:
		if l.OnError != nil {
			l.OnError(frame.Code, frame.Error)
		}
	default:
		m.log.Warn().Str("type", f.GetType()).Msg("unhandled frame type")
	}
}

// trHandler binds transport callbacks to the manager while
// remembering which transport they came from, so events from a
// replaced connection cannot corrupt the current one.
type trHandler struct {
	m  *Manager
	tr transport.Transport
}

func (h *trHandler) HandleUp() { h.m.handleUp(h.tr) }

func (h *trHandler) HandleDown(err error) { h.m.handleDown(h.tr, err) }

func (h *trHandler) HandleFrame(f transport.Frame) { h.m.handleFrame(h.tr, f) }
