package game

// Broadcast dispatch. A single prepared payload may be delivered to all
// members, all members except one, or a single member. Send failures are
// isolated per recipient: a peer that went away must not abort sibling
// sends in the same broadcast. Callers hold g.mu, which is what gives a
// multi-message sequence (e.g. kicked then removed) its per-recipient
// ordering.

func (g *Game) sendToAll(payload []byte) {
	for _, p := range g.players {
		g.sendTo(p, payload)
	}
}

func (g *Game) sendToAllExcept(payload []byte, excluded int32) {
	for id, p := range g.players {
		if id == excluded {
			continue
		}
		g.sendTo(p, payload)
	}
}

func (g *Game) sendTo(p *Player, payload []byte) {
	if err := p.client.SendReliable(payload); err != nil {
		g.logger.Warnf("%s - failed to send to player %d: %v", g.CodeString(), p.ID(), err)
	}
}
