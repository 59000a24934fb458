package game

import (
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/skeldnet/skeld/internal/proto"
)

// fakeClient satisfies Client without a network, capturing every payload
// sent to it.
type fakeClient struct {
	id     int32
	name   string
	addr   net.IP
	player *Player

	sent    [][]byte
	sendErr error
}

func newFakeClient(id int32) *fakeClient {
	return &fakeClient{
		id:   id,
		name: fmt.Sprintf("player%d", id),
		addr: net.IPv4(10, 0, 0, byte(id)),
	}
}

func (c *fakeClient) ID() int32       { return c.id }
func (c *fakeClient) Name() string    { return c.name }
func (c *fakeClient) Address() net.IP { return c.addr }

func (c *fakeClient) SendReliable(payload []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeClient) CurrentPlayer() *Player     { return c.player }
func (c *fakeClient) SetCurrentPlayer(p *Player) { c.player = p }

// sentTags decodes every message framed in the payloads the client has
// received and returns their tags in order.
func (c *fakeClient) sentTags(t *testing.T) []byte {
	t.Helper()
	var tags []byte
	for _, payload := range c.sent {
		r := proto.NewMessageReader(payload)
		for r.Remaining() > 0 {
			msg, err := r.ReadMessage()
			if err != nil {
				t.Fatalf("client %d received an unparseable payload: %v", c.id, err)
			}
			tags = append(tags, msg.Tag)
		}
	}
	return tags
}

func (c *fakeClient) reset() { c.sent = nil }

type fakeRegistry struct {
	ok bool
}

func (r *fakeRegistry) Validate(c Client) bool { return r.ok }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestGame(t *testing.T, maxPlayers int) *Game {
	t.Helper()
	code, err := proto.GameCodeToInt("QQQQQQ")
	if err != nil {
		t.Fatalf("error generating test game code: %v", err)
	}
	return NewGame(Settings{
		Logger:     testLogger(),
		Code:       code,
		Registry:   &fakeRegistry{ok: true},
		MaxPlayers: maxPlayers,
	})
}

// join admits a client and fails the test on any rejection.
func join(t *testing.T, g *Game, c *fakeClient) *Player {
	t.Helper()
	result := g.AddClient(c)
	if !result.Success() {
		t.Fatalf("AddClient(%d) was rejected: %s", c.id, result.Error)
	}
	return result.Player
}

// inboundMessage builds a framed message the way a client would send it
// and returns the reader a dispatcher would hand to the game.
func inboundMessage(t *testing.T, tag byte, build func(w *proto.MessageWriter)) *proto.MessageReader {
	t.Helper()
	w := proto.NewMessageWriter()
	w.StartMessage(tag)
	if build != nil {
		build(w)
	}
	w.EndMessage()

	msg, err := proto.NewMessageReader(w.Bytes()).ReadMessage()
	if err != nil {
		t.Fatalf("error framing test message: %v", err)
	}
	return msg
}

func TestAddClientFirstPlayerBecomesHost(t *testing.T) {
	g := newTestGame(t, 10)
	c := newFakeClient(1)

	p := join(t, g, c)

	if g.HostID() != 1 {
		t.Errorf("HostID() want = 1, got = %d", g.HostID())
	}
	if p.Limbo() != NotLimbo {
		t.Errorf("admitted player limbo want = not limbo, got = %s", p.Limbo())
	}
	if g.PlayerCount() != 1 {
		t.Errorf("PlayerCount() want = 1, got = %d", g.PlayerCount())
	}

	// The new player is told about the game and its visibility.
	expected := []byte{proto.JoinedGameTag, proto.AlterGameTag}
	if diff := cmp.Diff(expected, c.sentTags(t)); diff != "" {
		t.Errorf("admitted player received wrong messages; diff:\n%s", diff)
	}
}

func TestAddClientNotifiesExistingMembers(t *testing.T) {
	g := newTestGame(t, 10)
	c1 := newFakeClient(1)
	c2 := newFakeClient(2)

	join(t, g, c1)
	c1.reset()
	join(t, g, c2)

	expected := []byte{proto.JoinGameTag}
	if diff := cmp.Diff(expected, c1.sentTags(t)); diff != "" {
		t.Errorf("existing member received wrong messages; diff:\n%s", diff)
	}
}

func TestAddClientRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, g *Game, c *fakeClient)
		want  JoinError
	}{
		{
			name: "banned address",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				g.bannedAddrs[c.addr.String()] = struct{}{}
			},
			want: JoinErrorBanned,
		},
		{
			name: "game full",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				join(t, g, newFakeClient(10))
				join(t, g, newFakeClient(11))
			},
			want: JoinErrorGameFull,
		},
		{
			name: "game started",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				join(t, g, newFakeClient(10))
				if err := g.HandleStartGame(inboundMessage(t, proto.StartGameTag, nil)); err != nil {
					t.Fatalf("HandleStartGame() returned an unexpected error: %v", err)
				}
			},
			want: JoinErrorGameStarted,
		},
		{
			name: "game destroyed",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				join(t, g, newFakeClient(10))
				if err := g.HandleRemovePlayer(10, proto.DisconnectExitGame); err != nil {
					t.Fatalf("HandleRemovePlayer() returned an unexpected error: %v", err)
				}
			},
			want: JoinErrorGameDestroyed,
		},
		{
			name: "registry rejects client",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				g.registry = &fakeRegistry{ok: false}
			},
			want: JoinErrorInvalidClient,
		},
		{
			name: "double join",
			setup: func(t *testing.T, g *Game, c *fakeClient) {
				join(t, g, c)
			},
			want: JoinErrorInvalidLimbo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t, 2)
			c := newFakeClient(1)
			tt.setup(t, g, c)

			result := g.AddClient(c)
			if result.Success() {
				t.Fatalf("AddClient() unexpectedly succeeded")
			}
			if result.Error != tt.want {
				t.Errorf("AddClient() rejection want = %s, got = %s", tt.want, result.Error)
			}
		})
	}
}

func TestAddClientCapacityExemptsExistingMembers(t *testing.T) {
	g := newTestGame(t, 2)
	host := newFakeClient(1)
	other := newFakeClient(2)
	join(t, g, host)
	join(t, g, other)

	if err := g.HandleEndGame(inboundMessage(t, proto.EndGameTag, nil)); err != nil {
		t.Fatalf("HandleEndGame() returned an unexpected error: %v", err)
	}

	// Both members still count against capacity, but their own rejoins
	// must not be starved by it.
	if result := g.AddClient(host); !result.Success() {
		t.Errorf("host rejoin at capacity was rejected: %s", result.Error)
	}

	// A newcomer is still turned away.
	if result := g.AddClient(newFakeClient(3)); result.Error != JoinErrorGameFull {
		t.Errorf("newcomer at capacity want = %s, got = %s", JoinErrorGameFull, result.Error)
	}
}

func TestHandleStartGame(t *testing.T) {
	g := newTestGame(t, 10)
	c1 := newFakeClient(1)
	c2 := newFakeClient(2)
	join(t, g, c1)
	join(t, g, c2)
	c1.reset()
	c2.reset()

	msg := inboundMessage(t, proto.StartGameTag, func(w *proto.MessageWriter) {
		w.WriteInt32(g.Code())
	})
	if err := g.HandleStartGame(msg); err != nil {
		t.Fatalf("HandleStartGame() returned an unexpected error: %v", err)
	}

	if g.State() != Started {
		t.Errorf("State() want = started, got = %s", g.State())
	}
	for _, c := range []*fakeClient{c1, c2} {
		if diff := cmp.Diff([]byte{proto.StartGameTag}, c.sentTags(t)); diff != "" {
			t.Errorf("client %d received wrong messages; diff:\n%s", c.id, diff)
		}
	}
}

func TestHandleEndGameParksEveryMember(t *testing.T) {
	g := newTestGame(t, 10)
	c1 := newFakeClient(1)
	c2 := newFakeClient(2)
	p1 := join(t, g, c1)
	p2 := join(t, g, c2)
	c1.reset()
	c2.reset()

	if err := g.HandleEndGame(inboundMessage(t, proto.EndGameTag, nil)); err != nil {
		t.Fatalf("HandleEndGame() returned an unexpected error: %v", err)
	}

	if g.State() != Ended {
		t.Errorf("State() want = ended, got = %s", g.State())
	}
	for _, p := range []*Player{p1, p2} {
		if p.Limbo() != PreSpawn {
			t.Errorf("player %d limbo want = pre spawn, got = %s", p.ID(), p.Limbo())
		}
	}
	for _, c := range []*fakeClient{c1, c2} {
		if diff := cmp.Diff([]byte{proto.EndGameTag}, c.sentTags(t)); diff != "" {
			t.Errorf("client %d received wrong messages; diff:\n%s", c.id, diff)
		}
	}
}

func TestEndedGameRejoinFlow(t *testing.T) {
	g := newTestGame(t, 10)
	host := newFakeClient(1)
	c2 := newFakeClient(2)
	c3 := newFakeClient(3)
	join(t, g, host)
	p2 := join(t, g, c2)
	p3 := join(t, g, c3)

	if err := g.HandleEndGame(inboundMessage(t, proto.EndGameTag, nil)); err != nil {
		t.Fatalf("HandleEndGame() returned an unexpected error: %v", err)
	}
	host.reset()
	c2.reset()
	c3.reset()

	// Non-host members arriving before the host are parked.
	if result := g.AddClient(c2); !result.Success() {
		t.Fatalf("rejoin of player 2 was rejected: %s", result.Error)
	}
	if p2.Limbo() != WaitingForHost {
		t.Errorf("player 2 limbo want = waiting for host, got = %s", p2.Limbo())
	}
	if g.State() != Ended {
		t.Errorf("State() while waiting for host want = ended, got = %s", g.State())
	}
	if diff := cmp.Diff([]byte{proto.WaitForHostTag}, c2.sentTags(t)); diff != "" {
		t.Errorf("parked player received wrong messages; diff:\n%s", diff)
	}

	if result := g.AddClient(c3); !result.Success() {
		t.Fatalf("rejoin of player 3 was rejected: %s", result.Error)
	}

	// The host's arrival restarts the game and releases the parked players.
	c2.reset()
	c3.reset()
	if result := g.AddClient(host); !result.Success() {
		t.Fatalf("host rejoin was rejected: %s", result.Error)
	}

	if g.State() != NotStarted {
		t.Errorf("State() after host rejoin want = not started, got = %s", g.State())
	}
	for _, p := range []*Player{p2, p3} {
		if p.Limbo() != NotLimbo {
			t.Errorf("player %d limbo after host rejoin want = not limbo, got = %s", p.ID(), p.Limbo())
		}
	}

	// Each released player is admitted exactly once.
	for _, c := range []*fakeClient{c2, c3} {
		joined := 0
		for _, tag := range c.sentTags(t) {
			if tag == proto.JoinedGameTag {
				joined++
			}
		}
		if joined != 1 {
			t.Errorf("player %d received %d joined messages, want 1", c.id, joined)
		}
	}
}

func TestHandleAlterGame(t *testing.T) {
	g := newTestGame(t, 10)
	c1 := newFakeClient(1)
	c2 := newFakeClient(2)
	p1 := join(t, g, c1)
	join(t, g, c2)
	c1.reset()
	c2.reset()

	msg := inboundMessage(t, proto.AlterGameTag, func(w *proto.MessageWriter) {
		w.WriteInt32(g.Code())
		w.WriteUint8(proto.AlterGameChangePrivacy)
		w.WriteBool(true)
	})
	if err := g.HandleAlterGame(msg, p1, true); err != nil {
		t.Fatalf("HandleAlterGame() returned an unexpected error: %v", err)
	}

	if !g.IsPublic() {
		t.Errorf("IsPublic() want = true, got = false")
	}
	// The sender's own UI is authoritative; only the others hear about it.
	if len(c1.sent) != 0 {
		t.Errorf("sender received %d payloads, want 0", len(c1.sent))
	}
	if diff := cmp.Diff([]byte{proto.AlterGameTag}, c2.sentTags(t)); diff != "" {
		t.Errorf("other member received wrong messages; diff:\n%s", diff)
	}
}

func TestHandleRemovePlayerMigratesHost(t *testing.T) {
	g := newTestGame(t, 10)
	c1 := newFakeClient(1)
	c2 := newFakeClient(2)
	c3 := newFakeClient(3)
	join(t, g, c1)
	join(t, g, c2)
	join(t, g, c3)
	c1.reset()
	c2.reset()
	c3.reset()

	if err := g.HandleRemovePlayer(1, proto.DisconnectExitGame); err != nil {
		t.Fatalf("HandleRemovePlayer() returned an unexpected error: %v", err)
	}

	// The departed host hands the game to the lowest remaining ID.
	if g.HostID() != 2 {
		t.Errorf("HostID() after host removal want = 2, got = %d", g.HostID())
	}
	if g.Player(1) != nil {
		t.Errorf("removed player still present in game")
	}
	if c1.player != nil {
		t.Errorf("removed player still bound to its client")
	}

	for _, c := range []*fakeClient{c2, c3} {
		if diff := cmp.Diff([]byte{proto.RemovePlayerTag}, c.sentTags(t)); diff != "" {
			t.Errorf("client %d received wrong messages; diff:\n%s", c.id, diff)
		}
	}
	if len(c1.sent) != 0 {
		t.Errorf("removed player received %d payloads, want 0", len(c1.sent))
	}
}

func TestRemoveLastPlayerDestroysGame(t *testing.T) {
	destroyed := 0
	g := newTestGame(t, 10)
	g.onDestroy = func(*Game) { destroyed++ }

	c := newFakeClient(1)
	join(t, g, c)
	c.reset()

	if err := g.HandleRemovePlayer(1, proto.DisconnectExitGame); err != nil {
		t.Fatalf("HandleRemovePlayer() returned an unexpected error: %v", err)
	}

	if g.State() != Destroyed {
		t.Errorf("State() want = destroyed, got = %s", g.State())
	}
	if destroyed != 1 {
		t.Errorf("destroy hook fired %d times, want 1", destroyed)
	}
	// Nobody is left to tell.
	if len(c.sent) != 0 {
		t.Errorf("client received %d payloads after game destruction, want 0", len(c.sent))
	}
}

func TestHandleKickPlayerWithBan(t *testing.T) {
	var bannedAddr, bannedCode string
	var bannedID int32

	g := newTestGame(t, 10)
	g.onBan = func(address, code string, playerID int32) {
		bannedAddr, bannedCode, bannedID = address, code, playerID
	}

	c1 := newFakeClient(1)
	c2 := newFakeClient(2)
	join(t, g, c1)
	join(t, g, c2)
	c1.reset()
	c2.reset()

	if err := g.HandleKickPlayer(2, true); err != nil {
		t.Fatalf("HandleKickPlayer() returned an unexpected error: %v", err)
	}

	// The target hears about the kick but not the membership delta.
	if diff := cmp.Diff([]byte{proto.KickPlayerTag}, c2.sentTags(t)); diff != "" {
		t.Errorf("kicked player received wrong messages; diff:\n%s", diff)
	}
	if diff := cmp.Diff([]byte{proto.KickPlayerTag, proto.RemovePlayerTag}, c1.sentTags(t)); diff != "" {
		t.Errorf("remaining member received wrong messages; diff:\n%s", diff)
	}

	if !g.IsBanned(c2.addr.String()) {
		t.Errorf("kicked player's address is not banned")
	}
	if bannedAddr != c2.addr.String() || bannedCode != g.CodeString() || bannedID != 2 {
		t.Errorf("ban hook got (%s, %s, %d), want (%s, %s, 2)",
			bannedAddr, bannedCode, bannedID, c2.addr.String(), g.CodeString())
	}

	// And the ban sticks.
	if result := g.AddClient(c2); result.Error != JoinErrorBanned {
		t.Errorf("rejoin after ban want = %s, got = %s", JoinErrorBanned, result.Error)
	}
}
