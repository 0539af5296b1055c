package core

// Frame is a marshaled wire event ready to send.
type Frame []byte

// ConnID identifies one websocket connection for its whole lifetime.
type ConnID string

// Conn abstracts the send side of a connection transport.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}
