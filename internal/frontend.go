package internal

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skeldnet/skeld/internal/core"
	coredebug "github.com/skeldnet/skeld/internal/core/debug"
	"github.com/skeldnet/skeld/internal/proto"
)

// frontend implements the concurrent client connection logic.
//
// Datagrams are read from the UDP socket, framed at the packet level
// (hello/ack/reliable bookkeeping), and passed to a Backend instance,
// abstracting the lower level connection details away from the Backends.
// Packet-level retransmission is deliberately not implemented here;
// inbound reliable packets are acknowledged and their payloads forwarded,
// nothing more.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	socket *net.UDPConn

	mu          sync.Mutex
	connections map[string]*connection
}

// Start initializes the server backend and opens a UDP socket for the
// server. The blocking datagram loop is spun off in its own goroutine and
// added to the WaitGroup. Context cancellations will stop the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %w", f.Backend.Identifier(), err)
	}

	if err := f.createSocket(); err != nil {
		return fmt.Errorf("error creating socket on %s: %w", f.Address, err)
	}

	f.connections = make(map[string]*connection)

	wg.Add(1)
	go f.startBlockingLoop(ctx, wg)

	return nil
}

func (f *frontend) createSocket() error {
	hostAddr, err := net.ResolveUDPAddr("udp", f.Address)
	if err != nil {
		return fmt.Errorf("error resolving address: %w", err)
	}

	f.socket, err = net.ListenUDP("udp", hostAddr)
	if err != nil {
		return fmt.Errorf("error listening on socket: %w", err)
	}
	return nil
}

// startBlockingLoop reads datagrams until the context is cancelled. All
// packets are handled on this goroutine, which is what preserves
// per-connection ordering of inbound traffic.
func (f *frontend) startBlockingLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Printf("[%s] waiting for datagrams on %v", f.Backend.Identifier(), f.Address)

	// Unblock the read below when we're told to shut down.
	go func() {
		<-ctx.Done()
		_ = f.socket.Close()
	}()

	buffer := make([]byte, 2048)
	for {
		n, addr, err := f.socket.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			f.Logger.Warnf("failed to read datagram: %s", err)
			continue
		}
		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buffer[:n])

		if f.Config.Debugging.PacketLoggingEnabled {
			f.Logger.Debugf("recv %d bytes from %s\n%s", n, addr, coredebug.FormatPayload(data))
		}

		f.handlePacket(ctx, f.connection(addr), data)
	}

	f.Logger.Infof("[%v] shutting down", f.Backend.Identifier())
	f.dropAllConnections()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// connection returns the tracked connection for addr, creating it on
// first contact.
func (f *frontend) connection(addr *net.UDPAddr) *connection {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, ok := f.connections[addr.String()]
	if !ok {
		conn = &connection{socket: f.socket, addr: addr}
		f.connections[addr.String()] = conn
	}
	return conn
}

// handlePacket dispatches one datagram based on its send option byte.
func (f *frontend) handlePacket(ctx context.Context, conn *connection, data []byte) {
	defer f.recoverFromPanic(conn)

	switch data[0] {
	case proto.PacketHello:
		if len(data) < 3 {
			return
		}
		conn.sendAck(data[1], data[2])
		f.handleHello(conn, data[3:])

	case proto.PacketReliable:
		if len(data) < 3 {
			return
		}
		conn.sendAck(data[1], data[2])
		f.handlePayload(ctx, conn, data[3:])

	case proto.PacketUnreliable:
		f.handlePayload(ctx, conn, data[1:])

	case proto.PacketPing:
		if len(data) < 3 {
			return
		}
		conn.sendAck(data[1], data[2])

	case proto.PacketAcknowledge:
		// Nothing to resend, so nothing to do.

	case proto.PacketDisconnect:
		f.closeConnection(conn, proto.DisconnectExitGame)

	default:
		f.Logger.Debugf("unknown send option %02x from %s", data[0], conn.addr)
	}
}

// handleHello performs the connection handshake: the client announces its
// version and display name and receives an identity in return.
func (f *frontend) handleHello(conn *connection, payload []byte) {
	if conn.client != nil {
		// Duplicate hello, the ack is answer enough.
		return
	}

	r := proto.NewMessageReader(payload)
	if _, err := r.ReadByte(); err != nil { // hazel protocol version
		f.Logger.Debugf("malformed hello from %s", conn.addr)
		return
	}
	version, err := r.ReadInt32()
	if err != nil {
		f.Logger.Debugf("malformed hello from %s", conn.addr)
		return
	}
	name, err := r.ReadString()
	if err != nil {
		f.Logger.Debugf("malformed hello from %s", conn.addr)
		return
	}

	c, err := f.Backend.AcceptClient(conn, name, version)
	if err != nil {
		f.Logger.Infof("[%s] rejected connection from %s: %s", f.Backend.Identifier(), conn.addr, err)
		_ = conn.Disconnect(proto.DisconnectServerFull, "")
		f.removeConnection(conn)
		return
	}

	conn.client = c
	f.Logger.Infof("[%s] accepted connection from %s as client %d (%s)",
		f.Backend.Identifier(), conn.addr, c.ID(), c.Name())
}

func (f *frontend) handlePayload(ctx context.Context, conn *connection, payload []byte) {
	if conn.client == nil {
		f.Logger.Debugf("dropping payload from %s before hello", conn.addr)
		return
	}
	if err := f.Backend.Handle(ctx, conn.client, payload); err != nil {
		f.Logger.Warnf("error in client communication with %s: %s", conn.addr, err)
		f.closeConnection(conn, proto.DisconnectError)
	}
}

func (f *frontend) closeConnection(conn *connection, reason proto.DisconnectReason) {
	f.removeConnection(conn)

	if conn.client != nil {
		f.Backend.DropClient(conn.client, reason)
		conn.client = nil
	}
}

func (f *frontend) removeConnection(conn *connection) {
	f.mu.Lock()
	delete(f.connections, conn.addr.String())
	f.mu.Unlock()
}

func (f *frontend) dropAllConnections() {
	f.mu.Lock()
	conns := make([]*connection, 0, len(f.connections))
	for _, conn := range f.connections {
		conns = append(conns, conn)
	}
	f.connections = make(map[string]*connection)
	f.mu.Unlock()

	for _, conn := range conns {
		if conn.client != nil {
			f.Backend.DropClient(conn.client, proto.DisconnectServerRequest)
			conn.client = nil
		}
	}
}

// recoverFromPanic is the failsafe that catches any panics and disconnects
// the offending client regardless of the state of the connection.
func (f *frontend) recoverFromPanic(conn *connection) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			conn.addr, err, debug.Stack())
		f.closeConnection(conn, proto.DisconnectError)
	}
}
