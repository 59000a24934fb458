package game

import "github.com/skeldnet/skeld/internal/proto"

// HandleGameData consumes the tagged sub-messages embedded in in-game
// traffic and forwards the message to its recipients. The parser's
// defining property is resilience: every sub-message is length-framed, so
// failing to interpret a tag's payload never prevents skipping to the
// next boundary. Unknown input is logged and tolerated, never fatal.
func (g *Game) HandleGameData(msg *proto.MessageReader, sender *Player, toPlayer bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Find the target player.
	var target *Player
	if toPlayer {
		targetID, err := msg.ReadPackedInt32()
		if err != nil {
			g.logger.Debugf("%s - malformed game data target from %d: %v", g.CodeString(), sender.ID(), err)
			return nil
		}
		t, ok := g.players[targetID]
		if !ok {
			// Stale or racy packet: drop the whole message, no error to the peer.
			g.logger.Debugf("%s - dropping game data for unknown target %d", g.CodeString(), targetID)
			return nil
		}
		target = t
	}

	// Parse the sub-messages.
	for msg.Position() < msg.Length() {
		sub, err := msg.ReadMessage()
		if err != nil {
			// The outer framing itself is broken; nothing more can be
			// recovered from this message.
			g.logger.Debugf("%s - malformed game data from %d: %v", g.CodeString(), sender.ID(), err)
			break
		}
		g.parseGameDataMessage(sub, sender)
	}

	// Route the message onward. Interpretation above is best-effort
	// observability; routing is the actual job.
	w := proto.NewMessageWriter()
	copyMessage(w, msg)

	if target != nil {
		g.sendTo(target, w.Bytes())
	} else {
		g.sendToAllExcept(w.Bytes(), sender.ID())
	}
	return nil
}

// parseGameDataMessage dispatches one sub-message purely by its tag.
// Reads that run short are logged as protocol anomalies; the sub-message's
// own length framing guarantees the outer cursor still advances correctly.
func (g *Game) parseGameDataMessage(sub *proto.MessageReader, sender *Player) {
	switch sub.Tag {
	case proto.DataFlag:
		objectID, err := sub.ReadPackedUint32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> update %d", objectID)

	case proto.RpcFlag:
		objectID, err := sub.ReadPackedUint32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		callID, err := sub.ReadByte()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> rpc %d %d", objectID, callID)
		g.parseRpc(sub, sender, callID)

	case proto.SpawnFlag:
		objectID, err := sub.ReadPackedUint32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> spawn %d", objectID)

	case proto.DespawnFlag:
		objectID, err := sub.ReadPackedUint32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> despawn %d", objectID)

	case proto.SceneChangeFlag:
		clientID, err := sub.ReadPackedInt32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		scene, err := sub.ReadString()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> scene %d to %s", clientID, scene)

	case proto.ReadyFlag:
		clientID, err := sub.ReadPackedInt32()
		if err != nil {
			g.logGameDataAnomaly(sub.Tag, sender, err)
			return
		}
		g.logger.Tracef("> ready %d", clientID)

	default:
		g.logger.Debugf("%s - bad game data tag %d from %d", g.CodeString(), sub.Tag, sender.ID())
	}
}

// parseRpc consumes the extra fields of the few call IDs that carry any.
// Every other call ID is left to the sub-message framing.
func (g *Game) parseRpc(sub *proto.MessageReader, sender *Player, callID byte) {
	switch callID {
	case proto.RpcSyncSettings:
		// The fields are read to keep the cursor aligned even though only
		// the map is currently observed.
		opts, err := proto.ReadGameOptions(sub)
		if err != nil {
			g.logGameDataAnomaly(proto.RpcFlag, sender, err)
			return
		}
		g.logger.Tracef("> map %d", opts.MapID)
	case proto.RpcStartTalking:
		g.logger.Tracef("> start talking")
	case proto.RpcEndTalking:
		g.logger.Tracef("> end talking")
	}
}

func (g *Game) logGameDataAnomaly(tag byte, sender *Player, err error) {
	g.logger.Debugf("%s - short game data read (tag %d) from %d: %v", g.CodeString(), tag, sender.ID(), err)
}
