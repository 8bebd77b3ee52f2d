package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	maxDialAttempts = 5
	baseRetryDelay  = 2 * time.Second
	pingInterval    = 30 * time.Second
	pongTimeout     = 90 * time.Second
	writeWait       = 10 * time.Second
	maxFrameSize    = 1 << 20 // 1 MB
)

var errNotConnected = errors.New("transport: not connected")

// WSTransport is the gorilla/websocket implementation of Transport.
// It is single-use: one Dial per instance, one connection lifetime.
// The dial itself retries with exponential backoff (2s, 4s, 8s, ...)
// up to a bounded attempt count; once established, a dropped
// connection is final and the handler sees exactly one HandleDown.
// Reconnecting is the owner's decision, with a fresh transport.
type WSTransport struct {
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

func NewWSTransport(log zerolog.Logger) *WSTransport {
	return &WSTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: writeWait,
		},
		log:    log,
		closed: make(chan struct{}),
	}
}

func (t *WSTransport) Dial(url, token string, h Handler) {
	go t.run(url, token, h)
}

func (t *WSTransport) run(url, token string, h Handler) {
	conn, err := t.dialWithBackoff(url, token)
	if err != nil {
		if t.isClosed() {
			h.HandleDown(nil)
		} else {
			h.HandleDown(err)
		}
		return
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	h.HandleUp()

	stopPing := make(chan struct{})
	go t.pingLoop(conn, stopPing)

	err = t.readLoop(conn, h)
	close(stopPing)

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()
	conn.Close()

	if t.isClosed() {
		h.HandleDown(nil)
		return
	}

	t.log.Warn().Err(err).Msg("transport: connection lost")
	h.HandleDown(err)
}

func (t *WSTransport) dialWithBackoff(url, token string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var lastErr error
	for attempt := 0; attempt < maxDialAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s, 4s, 8s, 16s
			delay := baseRetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-t.closed:
				return nil, errors.New("transport: closed")
			case <-time.After(delay):
			}
		}

		if t.isClosed() {
			return nil, errors.New("transport: closed")
		}

		conn, _, err := t.dialer.Dial(url, header)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		t.log.Warn().Err(err).Int("attempt", attempt+1).Msg("transport: dial failed")
	}
	return nil, lastErr
}

func (t *WSTransport) readLoop(conn *websocket.Conn, h Handler) error {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		frame, err := Deserialize(data)
		if err != nil {
			// Unknown or malformed frames are skipped, not fatal.
			t.log.Warn().Err(err).Msg("transport: dropping undecodable frame")
			continue
		}

		h.HandleFrame(frame)
	}
}

func (t *WSTransport) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (t *WSTransport) Send(f Frame) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return errNotConnected
	}

	data, err := Serialize(f)
	if err != nil {
		return err
	}

	// gorilla allows one concurrent writer for data frames
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (t *WSTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.closed)
	})

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (t *WSTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}
