package game

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skeldnet/skeld/internal/proto"
)

// State is the lifecycle state of a game.
type State int

const (
	NotStarted State = iota
	Started
	Ended
	// Destroyed is terminal. A destroyed game holds no players and accepts
	// no further joins.
	Destroyed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Started:
		return "started"
	case Ended:
		return "ended"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Registry validates that a client is eligible to be bound to a game.
type Registry interface {
	Validate(c Client) bool
}

// Settings bundles everything a Game needs at construction time.
type Settings struct {
	Logger   *logrus.Logger
	Code     int32
	Registry Registry
	// MaxPlayers caps membership. Rejoins of existing members bypass it.
	MaxPlayers int
	Public     bool

	// OnDestroy is invoked exactly once, when the last player is removed.
	OnDestroy func(g *Game)
	// OnBan is invoked when a host kicks a player with the ban option.
	// Best-effort; the ban itself is recorded in the game regardless.
	OnBan func(address string, code string, playerID int32)
}

// Game owns the lifecycle state, membership, host identity, ban list and
// visibility of one running game. Everything below the mutex is guarded by
// it; handlers for a single game are serialized so no admission decision
// can observe a torn intermediate state.
type Game struct {
	logger   *logrus.Logger
	code     int32
	registry Registry

	onDestroy func(g *Game)
	onBan     func(address string, code string, playerID int32)

	mu          sync.Mutex
	state       State
	isPublic    bool
	hostID      int32
	maxPlayers  int
	players     map[int32]*Player
	bannedAddrs map[string]struct{}
}

func NewGame(settings Settings) *Game {
	return &Game{
		logger:      settings.Logger,
		code:        settings.Code,
		registry:    settings.Registry,
		onDestroy:   settings.OnDestroy,
		onBan:       settings.OnBan,
		isPublic:    settings.Public,
		maxPlayers:  settings.MaxPlayers,
		players:     make(map[int32]*Player),
		bannedAddrs: make(map[string]struct{}),
	}
}

func (g *Game) Code() int32 { return g.code }

// CodeString returns the displayable form of the game code.
func (g *Game) CodeString() string { return proto.IntToGameCode(g.code) }

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) IsPublic() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isPublic
}

func (g *Game) HostID() int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hostID
}

func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *Game) MaxPlayers() int { return g.maxPlayers }

// Player returns the member with the given ID, or nil.
func (g *Game) Player(id int32) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players[id]
}

// PlayerIDs returns the member IDs in ascending order.
func (g *Game) PlayerIDs() []int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sortedPlayerIDs()
}

// IsBanned reports whether the address is excluded from joining.
func (g *Game) IsBanned(address string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.bannedAddrs[address]
	return ok
}

// HandleStartGame flips the game to Started and fans the inbound start
// payload out to all members verbatim.
func (g *Game) HandleStartGame(msg *proto.MessageReader) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = Started

	w := proto.NewMessageWriter()
	copyMessage(w, msg)
	g.sendToAll(w.Bytes())
	return nil
}

// HandleEndGame flips the game to Ended, broadcasts the end payload
// verbatim, and parks every member in PreSpawn so the rejoin cycle starts
// clean.
func (g *Game) HandleEndGame(msg *proto.MessageReader) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = Ended

	w := proto.NewMessageWriter()
	copyMessage(w, msg)
	g.sendToAll(w.Bytes())

	for _, p := range g.players {
		p.limbo = PreSpawn
	}
	return nil
}

// HandleAlterGame updates the public flag and rebroadcasts the inbound
// message to everyone except the sender, whose own UI is authoritative.
func (g *Game) HandleAlterGame(msg *proto.MessageReader, sender *Player, isPublic bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.isPublic = isPublic

	w := proto.NewMessageWriter()
	copyMessage(w, msg)
	g.sendToAllExcept(w.Bytes(), sender.ID())
	return nil
}

// HandleRemovePlayer detaches the player and, unless that destroyed the
// game, tells the remaining members about the departure.
func (g *Game) HandleRemovePlayer(playerID int32, reason proto.DisconnectReason) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removePlayer(playerID, false)

	// It's possible that the last player was removed, so check if the game
	// is still around.
	if g.state == Destroyed {
		return nil
	}

	w := proto.NewMessageWriter()
	g.writeRemovePlayerMessage(w, playerID, reason)
	g.sendToAllExcept(w.Bytes(), playerID)
	return nil
}

// HandleKickPlayer broadcasts the kick to everyone (including the target,
// which may still receive it before disconnecting), removes the player,
// then broadcasts the membership delta to the remaining members. The two
// distinct wire messages are intentional.
func (g *Game) HandleKickPlayer(playerID int32, isBan bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Infof("%s - player %d was kicked (ban=%v)", g.CodeString(), playerID, isBan)

	w := proto.NewMessageWriter()
	g.writeKickPlayerMessage(w, playerID, isBan)
	g.sendToAll(w.Bytes())

	g.removePlayer(playerID, isBan)

	if g.state == Destroyed {
		return nil
	}

	reason := proto.DisconnectKicked
	if isBan {
		reason = proto.DisconnectBanned
	}

	w = proto.NewMessageWriter()
	g.writeRemovePlayerMessage(w, playerID, reason)
	g.sendToAllExcept(w.Bytes(), playerID)
	return nil
}

// removePlayer unconditionally detaches the player. Recording a ban,
// migrating the host and destroying an emptied game all happen here.
// Callers hold g.mu.
func (g *Game) removePlayer(playerID int32, ban bool) {
	p, ok := g.players[playerID]
	if !ok {
		return
	}
	delete(g.players, playerID)

	if p.client.CurrentPlayer() == p {
		p.client.SetCurrentPlayer(nil)
	}

	if ban {
		if addr := p.client.Address(); addr != nil {
			g.bannedAddrs[addr.String()] = struct{}{}
			if g.onBan != nil {
				g.onBan(addr.String(), g.CodeString(), playerID)
			}
		}
	}

	if len(g.players) == 0 {
		g.state = Destroyed
		g.logger.Infof("%s - game destroyed", g.CodeString())
		if g.onDestroy != nil {
			g.onDestroy(g)
		}
		return
	}

	// The departed host hands the game to the lowest remaining player ID
	// so migration is deterministic.
	if playerID == g.hostID {
		g.hostID = g.sortedPlayerIDs()[0]
		g.logger.Infof("%s - host migrated to %d", g.CodeString(), g.hostID)
	}
}

func (g *Game) sortedPlayerIDs() []int32 {
	ids := make([]int32, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
