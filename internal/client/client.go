package client

import (
	"net"
	"sync"

	"github.com/skeldnet/skeld/internal/game"
	"github.com/skeldnet/skeld/internal/proto"
)

// Connection is the transport-level surface a Client sends through.
// Implemented by the frontend; the client layer never touches sockets.
type Connection interface {
	// SendReliable delivers payload with guaranteed delivery semantics.
	SendReliable(payload []byte) error
	// SendUnreliable delivers payload best-effort.
	SendUnreliable(payload []byte) error
	// Address returns the remote address, or nil if unknown.
	Address() net.IP
	// Disconnect tears the connection down with a reason for the peer.
	Disconnect(reason proto.DisconnectReason, message string) error
}

// Client represents one connected game client.
type Client struct {
	id      int32
	name    string
	version int32
	conn    Connection

	mu     sync.Mutex
	player *game.Player
}

func (c *Client) ID() int32      { return c.id }
func (c *Client) Name() string   { return c.name }
func (c *Client) Version() int32 { return c.version }

func (c *Client) Address() net.IP {
	if c.conn == nil {
		return nil
	}
	return c.conn.Address()
}

func (c *Client) SendReliable(payload []byte) error {
	return c.conn.SendReliable(payload)
}

func (c *Client) SendUnreliable(payload []byte) error {
	return c.conn.SendUnreliable(payload)
}

func (c *Client) Disconnect(reason proto.DisconnectReason, message string) error {
	return c.conn.Disconnect(reason, message)
}

// CurrentPlayer returns the player this client is bound to, or nil. The
// game owns the player; this is a lookup handle only.
func (c *Client) CurrentPlayer() *game.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

func (c *Client) SetCurrentPlayer(p *game.Player) {
	c.mu.Lock()
	c.player = p
	c.mu.Unlock()
}
