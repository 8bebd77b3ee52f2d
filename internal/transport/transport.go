package transport

// Handler receives transport lifecycle notifications and inbound
// frames. Callbacks are invoked from the transport's own goroutines;
// implementations must be safe for that.
type Handler interface {
	// HandleUp fires when the connection is established.
	HandleUp()

	// HandleDown fires exactly once: when the dial gives up, when
	// an established connection is lost, or when the transport was
	// closed deliberately (err == nil in that case).
	HandleDown(err error)

	// HandleFrame delivers one decoded inbound frame.
	HandleFrame(f Frame)
}

// Transport is a persistent bidirectional channel to the messaging
// server. Implementations own their reconnection policy; callers
// just observe HandleUp/HandleDown.
type Transport interface {
	// Dial starts connecting asynchronously and returns
	// immediately. Outcome is reported through the handler.
	Dial(url, token string, h Handler)

	// Send writes one frame. Fails if no connection is currently
	// established.
	Send(f Frame) error

	// Close tears the connection down and stops any re-dialing.
	// Safe to call repeatedly.
	Close()
}
