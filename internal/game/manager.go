package game

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skeldnet/skeld/internal/proto"
)

// Notifier announces game creation and deletion to an external consumer.
// Both calls are fire-and-forget; the manager never observes a failure.
type Notifier interface {
	GameCreated(code string)
	GameDeleted(code string)
}

// Manager tracks every running game by code. Cross-game operations have
// no ordering relationship with each other; the per-game serialization
// happens inside the games themselves.
type Manager struct {
	Logger   *logrus.Logger
	Registry Registry
	Notifier Notifier

	// MaxPlayers is the server-wide cap applied to each created game.
	MaxPlayers int
	// UseV1Codes generates 4-letter codes instead of 6-letter ones.
	UseV1Codes bool
	// OnBan is passed through to every created game.
	OnBan func(address string, code string, playerID int32)

	mu    sync.RWMutex
	games map[int32]*Game
}

func (m *Manager) Init() {
	m.games = make(map[int32]*Game)
}

// CreateGame allocates an unused code and registers a new game under it.
// The requested player cap is honored up to the server-wide limit.
func (m *Manager) CreateGame(requestedMaxPlayers int) *Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	var code int32
	for {
		code = m.generateCode()
		if _, taken := m.games[code]; !taken {
			break
		}
	}

	maxPlayers := requestedMaxPlayers
	if maxPlayers <= 0 || maxPlayers > m.MaxPlayers {
		maxPlayers = m.MaxPlayers
	}

	g := NewGame(Settings{
		Logger:     m.Logger,
		Code:       code,
		Registry:   m.Registry,
		MaxPlayers: maxPlayers,
		OnBan:      m.OnBan,
		OnDestroy:  m.removeGame,
	})
	m.games[code] = g

	m.Logger.Infof("%s - game created (max %d players)", g.CodeString(), maxPlayers)
	if m.Notifier != nil {
		m.Notifier.GameCreated(g.CodeString())
	}
	return g
}

// FindGame returns the game registered under code, or nil.
func (m *Manager) FindGame(code int32) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[code]
}

// Games returns a snapshot of all running games.
func (m *Manager) Games() []*Game {
	m.mu.RLock()
	defer m.mu.RUnlock()

	games := make([]*Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	return games
}

// Count returns the number of running games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// removeGame is the destruction hook each game calls when its last player
// is removed.
func (m *Manager) removeGame(g *Game) {
	m.mu.Lock()
	delete(m.games, g.Code())
	m.mu.Unlock()

	if m.Notifier != nil {
		m.Notifier.GameDeleted(g.CodeString())
	}
}

func (m *Manager) generateCode() int32 {
	if m.UseV1Codes {
		return proto.GenerateGameCodeV1()
	}
	return proto.GenerateGameCode()
}
