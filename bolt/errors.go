package bolt

import "errors"

var (
	// ErrVersionsNotSupported is returned when the server replies to the
	// handshake with the all-zero version, please read @spec section 4.3.
	ErrVersionsNotSupported = errors.New("bolt: none of the proposed versions are supported by the server")

	// ErrEmptyMessage is returned when a chunk stream's very first chunk is
	// the zero-length terminator.
	ErrEmptyMessage = errors.New("bolt: empty message")

	// ErrUnexpectedResponse is returned when a response does not match any
	// tag the connection state machine expects for the request it made.
	ErrUnexpectedResponse = errors.New("bolt: unexpected response")

	// ErrNoBookmarkInCommit is returned when a transaction COMMIT succeeds
	// without carrying a bookmark, please read @spec section 4.7.
	ErrNoBookmarkInCommit = errors.New("bolt: commit succeeded without a bookmark")

	// ErrConnNotReady names a request made while the connection is not in
	// the state that request requires. The Conn request methods do not
	// check the state before sending and never return it; an out-of-order
	// request surfaces as the server's FAILURE or IGNORED instead.
	ErrConnNotReady = errors.New("bolt: connection is not ready for this request")
)

// FailureError wraps the code/message pair carried by a FAILURE response,
// please read @spec section 4.5.
type FailureError struct {
	Code    string
	Message string
}

func (e *FailureError) Error() string {
	return "bolt: server failure " + e.Code + ": " + e.Message
}

// AuthenticationError wraps the code/message pair carried by a FAILURE
// response to HELLO.
type AuthenticationError struct {
	Code    string
	Message string
}

func (e *AuthenticationError) Error() string {
	return "bolt: authentication failed (" + e.Code + "): " + e.Message
}
