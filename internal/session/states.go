// Package session drives one TCP connection through the SLIM ack-and-loop
// protocol: send the version banner, then repeatedly read a
// framed instruction batch, execute it against the connection's own
// ExecutionContext, and write back the framed results, until the client
// sends "bye" or the connection fails.
package session

// State is one node of the session's protocol state machine. It
// exists mainly for observability — SetOnStateChange lets a test
// assert the exact sequence of transitions a connection goes through.
type State int

const (
	// StateStart is the state immediately after accept, before the
	// version banner has been sent.
	StateStart State = iota

	// StateRecvLen is waiting for the next frame: its six-digit length
	// header and then its body.
	StateRecvLen

	// StateRecvBody is entered once a whole frame has been read, while
	// its body is checked for "bye" or executed as a batch.
	StateRecvBody

	// StateClosed is terminal: the connection is closed, by "bye" or
	// by a fatal read/decode/write error.
	StateClosed
)

// String renders the state the way the logger and tests want to see it.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateRecvLen:
		return "RecvLen"
	case StateRecvBody:
		return "RecvBody"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
