package internal

import (
	"context"

	"github.com/skeldnet/skeld/internal/client"
	"github.com/skeldnet/skeld/internal/proto"
)

// Backend is an interface for a server that handles game traffic once the
// frontend has taken care of the datagram-level framing.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend
	// to perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// AcceptClient is called when a connection completes the hello
	// exchange. The returned Client carries the identity used for all
	// subsequent traffic on the connection.
	AcceptClient(conn client.Connection, name string, version int32) (*client.Client, error)

	// Handle is the main entry point for processing client messages. One
	// call covers the full payload of a single inbound packet.
	Handle(ctx context.Context, c *client.Client, data []byte) error

	// DropClient is called exactly once when the connection goes away for
	// any reason.
	DropClient(c *client.Client, reason proto.DisconnectReason)
}
