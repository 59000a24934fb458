package game

import "net"

// LimboState tracks a player's progress through admission. A player whose
// limbo is anything other than NotLimbo is not yet part of ordinary game
// traffic.
type LimboState int

const (
	// NotLimbo means the player is fully admitted.
	NotLimbo LimboState = iota
	// PreSpawn is the default for joining players and for everyone after a
	// game ends, in preparation for a clean rejoin cycle.
	PreSpawn
	// WaitingForHost marks a player who rejoined an ended game before the
	// host did and is parked until host migration completes.
	WaitingForHost
)

func (l LimboState) String() string {
	switch l {
	case NotLimbo:
		return "not limbo"
	case PreSpawn:
		return "pre spawn"
	case WaitingForHost:
		return "waiting for host"
	}
	return "unknown"
}

// Client is the game-facing view of a connected client. Implemented by the
// client registry's Client; defined here so the session machine can be
// exercised without a network.
type Client interface {
	ID() int32
	Name() string
	// Address returns the client's remote address, or nil if it is not
	// (yet) connected.
	Address() net.IP

	// SendReliable delivers one prepared outbound payload with guaranteed
	// delivery semantics.
	SendReliable(payload []byte) error

	// CurrentPlayer and SetCurrentPlayer maintain the lookup-only
	// back-reference from a client to its player. The game owns the
	// Player; the client merely holds the handle so reconnections can find
	// prior session affinity.
	CurrentPlayer() *Player
	SetCurrentPlayer(p *Player)
}

// Player is the per-game representation of a joined or joining client.
// All fields are guarded by the owning game's mutex.
type Player struct {
	client Client
	game   *Game
	limbo  LimboState
}

func newPlayer(c Client, g *Game) *Player {
	// Joining players always start out in limbo.
	return &Player{client: c, game: g, limbo: PreSpawn}
}

func (p *Player) ID() int32      { return p.client.ID() }
func (p *Player) Client() Client { return p.client }

// Game returns the game that owns this player.
func (p *Player) Game() *Game { return p.game }

// Limbo returns the player's current limbo state.
func (p *Player) Limbo() LimboState {
	p.game.mu.Lock()
	defer p.game.mu.Unlock()
	return p.limbo
}
