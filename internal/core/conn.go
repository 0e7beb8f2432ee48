package core

// Frame is one serialized protocol message.
type Frame []byte

// Conn is the transport endpoint for one connected client.
// Implementations must be safe for concurrent use; TrySend never blocks.
type Conn interface {
	TrySend(Frame) error
	Close()
}
