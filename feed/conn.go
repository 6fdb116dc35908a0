package feed

import "context"

// conn is the transport under the stream client. It exists so tests
// can swap the websocket for a scripted fake.
type conn interface {
	close() error
	ping(ctx context.Context) error
	readMessage(ctx context.Context) (data []byte, err error)
	writeMessage(ctx context.Context, data []byte) error
}
