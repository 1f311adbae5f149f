package relay

// Conn is the transport-level handle the hub and router work with. The
// websocket adapter implements it; tests substitute in-memory fakes.
type Conn interface {
	ID() string
	Send(data []byte) error
	Close() error
}
