package connection

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Sroberts03/pickup-sub000/internal/models"
	"github.com/Sroberts03/pickup-sub000/internal/transport"
)

// fakeTransport is a synchronous in-process Transport for tests.
type fakeTransport struct {
	mu      sync.Mutex
	handler transport.Handler
	sent    []transport.Frame
	closed  bool
	dialErr error
}

func (f *fakeTransport) Dial(url, token string, h transport.Handler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()

	if f.dialErr != nil {
		h.HandleDown(f.dialErr)
		return
	}
	h.HandleUp()
}

func (f *fakeTransport) Send(fr transport.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.sent = append(f.sent, fr)
	return nil
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeTransport) pushFrame(fr transport.Frame) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h.HandleFrame(fr)
}

type eventRecorder struct {
	connected    int
	disconnected int
	joined       []uint
	left         []uint
	messages     []models.Message
	errors       []string
}

func (r *eventRecorder) listeners() *EventListeners {
	return &EventListeners{
		OnConnected:    func() { r.connected++ },
		OnDisconnected: func() { r.disconnected++ },
		OnJoinedGroup:  func(id uint) { r.joined = append(r.joined, id) },
		OnLeftGroup:    func(id uint) { r.left = append(r.left, id) },
		OnNewMessage:   func(m models.Message) { r.messages = append(r.messages, m) },
		OnError:        func(code, msg string) { r.errors = append(r.errors, code) },
	}
}

func newTestManager(tr *fakeTransport) *Manager {
	factories := 0
	return NewManager("ws://localhost/ws", func() transport.Transport {
		factories++
		return tr
	}, zerolog.Nop())
}

func TestConnectEstablishes(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")

	if !m.IsConnected() {
		t.Errorf("expected connected state after dial success")
	}
	if rec.connected != 1 {
		t.Errorf("connected events = %d, want 1", rec.connected)
	}
}

func TestConnectIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	calls := 0
	m := NewManager("ws://localhost/ws", func() transport.Transport {
		calls++
		return tr
	}, zerolog.Nop())
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")
	m.Connect("token")

	if calls != 1 {
		t.Errorf("transport factory calls = %d, want 1 (second connect is a no-op)", calls)
	}
	if rec.connected != 1 {
		t.Errorf("connected events = %d, want 1", rec.connected)
	}
}

func TestConnectDialFailure(t *testing.T) {
	tr := &fakeTransport{dialErr: errors.New("connection refused")}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")

	if m.IsConnected() {
		t.Errorf("expected disconnected state after dial failure")
	}
	if rec.disconnected != 1 {
		t.Errorf("disconnected events = %d, want 1", rec.disconnected)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "transport_failed" {
		t.Errorf("errors = %v, want [transport_failed]", rec.errors)
	}
}

func TestConnectExpiredCredential(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	credential, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	tr := &fakeTransport{}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect(credential)

	if m.State() != models.Disconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
	if len(rec.errors) != 1 || rec.errors[0] != "credential_expired" {
		t.Errorf("errors = %v, want [credential_expired]", rec.errors)
	}
}

func TestDisconnect(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")
	m.Disconnect()

	if m.IsConnected() {
		t.Errorf("expected disconnected state")
	}
	if !tr.closed {
		t.Errorf("expected transport to be closed")
	}
	if rec.disconnected != 1 {
		t.Errorf("disconnected events = %d, want 1", rec.disconnected)
	}

	// Safe when already disconnected, no duplicate event.
	m.Disconnect()
	if rec.disconnected != 1 {
		t.Errorf("disconnected events after second call = %d, want 1", rec.disconnected)
	}
}

func TestListenerSlotReplace(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(tr)

	first := &eventRecorder{}
	second := &eventRecorder{}

	m.SetEventListeners(first.listeners())
	m.SetEventListeners(second.listeners())

	m.Connect("token")

	if first.connected != 0 {
		t.Errorf("replaced listener set still received events")
	}
	if second.connected != 1 {
		t.Errorf("active listener set missed the connected event")
	}

	m.RemoveEventListeners()
	tr.pushFrame(&transport.JoinedGroup{GroupID: 42})
	if len(second.joined) != 0 {
		t.Errorf("removed listener set still received events")
	}
}

func TestFrameRouting(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")

	tr.pushFrame(&transport.JoinedGroup{GroupID: 42})
	tr.pushFrame(&transport.LeftGroup{GroupID: 42})
	tr.pushFrame(&transport.NewMessage{Message: models.Message{ID: 3, GroupID: 42, SenderID: 7, Content: "game on"}})
	tr.pushFrame(&transport.ErrorFrame{Code: "not_a_member", Error: "not a member of group 9"})

	if len(rec.joined) != 1 || rec.joined[0] != 42 {
		t.Errorf("joined = %v, want [42]", rec.joined)
	}
	if len(rec.left) != 1 || rec.left[0] != 42 {
		t.Errorf("left = %v, want [42]", rec.left)
	}
	if len(rec.messages) != 1 || rec.messages[0].ID != 3 {
		t.Errorf("messages = %v, want one message with ID 3", rec.messages)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "not_a_member" {
		t.Errorf("errors = %v, want [not_a_member]", rec.errors)
	}
}

func TestStaleTransportIgnored(t *testing.T) {
	tr := &fakeTransport{}
	m := newTestManager(tr)
	rec := &eventRecorder{}
	m.SetEventListeners(rec.listeners())

	m.Connect("token")
	m.Disconnect()

	// Events from the torn-down transport must not resurrect state.
	tr.mu.Lock()
	h := tr.handler
	tr.mu.Unlock()
	h.HandleUp()
	h.HandleDown(errors.New("late failure"))

	if m.IsConnected() {
		t.Errorf("stale transport event changed connection state")
	}
	if rec.connected != 1 {
		t.Errorf("connected events = %d, want 1", rec.connected)
	}
	if rec.disconnected != 1 {
		t.Errorf("disconnected events = %d, want 1", rec.disconnected)
	}
}
