package game

import "github.com/skeldnet/skeld/internal/proto"

// AddClient decides, for one incoming join attempt, whether the caller
// becomes a fresh joiner, a rejoining spectator-in-waiting, or is
// rejected. The checks run in order and the first match wins.
func (g *Game) AddClient(c Client) JoinResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Check if the address of the player is banned.
	if addr := c.Address(); addr != nil {
		if _, banned := g.bannedAddrs[addr.String()]; banned {
			return joinFailure(JoinErrorBanned)
		}
	}

	player := c.CurrentPlayer()

	// Check if;
	// - The player is already in this game.
	// - The game is full.
	// Existing members bypass capacity so a reconnection is never starved
	// by its own stale membership entry.
	if (player == nil || player.game != g) && len(g.players) >= g.maxPlayers {
		return joinFailure(JoinErrorGameFull)
	}

	if g.state == Started {
		return joinFailure(JoinErrorGameStarted)
	}

	if g.state == Destroyed {
		return joinFailure(JoinErrorGameDestroyed)
	}

	isNew := false

	if player == nil || player.game != g {
		if !g.registry.Validate(c) {
			return joinFailure(JoinErrorInvalidClient)
		}

		isNew = true
		player = newPlayer(c, g)
		c.SetCurrentPlayer(player)
	}

	// An already-seated player must not be admitted twice.
	if player.limbo == NotLimbo {
		return joinFailure(JoinErrorInvalidLimbo)
	}

	if g.hostID == 0 {
		// First admission owns the game.
		g.hostID = c.ID()
	}

	if g.state == Ended {
		g.handleJoinGameNext(player, isNew)
		return joinSuccess(player)
	}

	g.handleJoinGameNew(player, isNew)
	return joinSuccess(player)
}

// handleJoinGameNew is the terminal admission path: after it the player
// fully participates in game traffic. Callers hold g.mu.
func (g *Game) handleJoinGameNew(p *Player, isNew bool) {
	g.logger.Infof("%s - player %s (%d) is joining", g.CodeString(), p.client.Name(), p.ID())

	if isNew {
		g.players[p.ID()] = p
	}

	p.limbo = NotLimbo

	w := proto.NewMessageWriter()
	g.writeJoinedGameMessage(w, p)
	g.writeAlterGameMessage(w, g.isPublic)
	g.sendTo(p, w.Bytes())

	w = proto.NewMessageWriter()
	g.writeJoinGameMessage(w, p)
	g.sendToAllExcept(w.Bytes(), p.ID())
}

// handleJoinGameNext handles joins against an ended game. The host's
// arrival restarts the game and releases everyone parked in limbo; anyone
// else waits. Callers hold g.mu.
func (g *Game) handleJoinGameNext(p *Player, isNew bool) {
	g.logger.Infof("%s - player %s (%d) is rejoining", g.CodeString(), p.client.Name(), p.ID())

	if isNew {
		g.players[p.ID()] = p
	}

	// Check if the host joined and let everyone in.
	if p.ID() == g.hostID {
		g.state = NotStarted

		// Admit the host first.
		g.handleJoinGameNew(p, false)

		g.checkLimboPlayers()
		return
	}

	p.limbo = WaitingForHost

	w := proto.NewMessageWriter()
	g.writeWaitForHostMessage(w, p)
	g.sendTo(p, w.Bytes())

	w = proto.NewMessageWriter()
	g.writeJoinGameMessage(w, p)
	g.sendToAllExcept(w.Bytes(), p.ID())
}

// checkLimboPlayers admits every player waiting on the host, in ascending
// player ID order so the sweep is deterministic. Callers hold g.mu.
func (g *Game) checkLimboPlayers() {
	for _, id := range g.sortedPlayerIDs() {
		p := g.players[id]
		if p.limbo == WaitingForHost {
			g.handleJoinGameNew(p, false)
		}
	}
}
