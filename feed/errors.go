package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectCalledMultipleTimes is returned when Connect is called
	// on an already connected client.
	ErrConnectCalledMultipleTimes = errors.New("feed: connect can only be called once")

	// ErrNoConnected is returned when the server does not open the
	// session with its connected greeting.
	ErrNoConnected = errors.New("feed: did not receive connected message")

	// ErrBadAuthResponse is returned when the auth reply is neither a
	// success nor a recognizable error.
	ErrBadAuthResponse = errors.New("feed: unexpected auth response")

	// ErrInvalidCredentials is returned for a rejected key/secret pair.
	// It is terminal: reconnecting cannot fix it.
	ErrInvalidCredentials = errors.New("feed: invalid credentials")

	// ErrBadSubResponse is returned when the subscribe reply is not a
	// subscription confirmation.
	ErrBadSubResponse = errors.New("feed: unexpected subscribe response")
)

// errorMessage is an error control message sent by the server.
type errorMessage struct {
	msg  string
	code int
}

func (e errorMessage) Error() string {
	return fmt.Sprintf("feed: %s (%d)", e.msg, e.code)
}

const errCodeInvalidCredentials = 402
