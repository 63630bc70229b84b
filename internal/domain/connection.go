package domain

// ConnectionState is the stream connector's lifecycle state.
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// String returns the string representation of ConnectionState.
func (s ConnectionState) String() string {
	return string(s)
}

// IsValid checks if the state is a valid value.
func (s ConnectionState) IsValid() bool {
	return s == StateConnecting || s == StateConnected || s == StateDisconnected
}
