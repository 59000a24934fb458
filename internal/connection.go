package internal

import (
	"net"
	"sync"

	"github.com/skeldnet/skeld/internal/client"
	"github.com/skeldnet/skeld/internal/proto"
)

var _ client.Connection = (*connection)(nil)

// connection wraps one remote UDP endpoint. Reliable sends carry an
// incrementing big-endian nonce; the nonce counter is the only shared
// state and is guarded by the mutex so that game broadcasts may fan out
// from any goroutine.
type connection struct {
	socket *net.UDPConn
	addr   *net.UDPAddr

	mu    sync.Mutex
	nonce uint16

	client *client.Client
}

func (c *connection) Address() net.IP {
	return c.addr.IP
}

func (c *connection) SendReliable(payload []byte) error {
	c.mu.Lock()
	c.nonce++
	nonce := c.nonce
	c.mu.Unlock()

	buf := make([]byte, 0, len(payload)+3)
	buf = append(buf, proto.PacketReliable, byte(nonce>>8), byte(nonce))
	buf = append(buf, payload...)

	_, err := c.socket.WriteToUDP(buf, c.addr)
	return err
}

func (c *connection) SendUnreliable(payload []byte) error {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, proto.PacketUnreliable)
	buf = append(buf, payload...)

	_, err := c.socket.WriteToUDP(buf, c.addr)
	return err
}

// sendAck acknowledges a reliable packet by echoing its nonce back. The
// trailing byte is the recently-received bitfield, which we always report
// as full since we never ask for retransmission.
func (c *connection) sendAck(nonceHigh, nonceLow byte) {
	_, _ = c.socket.WriteToUDP([]byte{proto.PacketAcknowledge, nonceHigh, nonceLow, 0xff}, c.addr)
}

// Disconnect tells the remote endpoint to go away. A zero reason sends the
// bare disconnect packet; anything else attaches the reason and, for
// custom reasons, the message shown to the player.
func (c *connection) Disconnect(reason proto.DisconnectReason, message string) error {
	w := proto.NewMessageWriter()
	w.WriteUint8(proto.PacketDisconnect)
	if reason != proto.DisconnectExitGame {
		w.WriteUint8(1)
		w.StartMessage(0)
		w.WriteUint8(uint8(reason))
		if reason == proto.DisconnectCustom {
			w.WriteString(message)
		}
		w.EndMessage()
	}

	_, err := c.socket.WriteToUDP(w.Bytes(), c.addr)
	return err
}
