package game

import "github.com/skeldnet/skeld/internal/proto"

// Builders for the outbound game messages. Every one of these produces a
// length-framed tagged record symmetric with the inbound framing, so a
// client decoder can round-trip them. Callers hold g.mu.

// copyMessage copies an inbound message verbatim (tag and body) into an
// outbound writer.
func copyMessage(w *proto.MessageWriter, msg *proto.MessageReader) {
	w.StartMessage(msg.Tag)
	w.WriteBytes(msg.Bytes())
	w.EndMessage()
}

// writeJoinedGameMessage is the confirmation sent to a newly admitted
// player: the game code, their own ID, the host, and the current roster.
func (g *Game) writeJoinedGameMessage(w *proto.MessageWriter, p *Player) {
	w.StartMessage(proto.JoinedGameTag)
	w.WriteInt32(g.code)
	w.WriteInt32(p.ID())
	w.WriteInt32(g.hostID)

	others := make([]int32, 0, len(g.players))
	for id := range g.players {
		if id != p.ID() {
			others = append(others, id)
		}
	}
	w.WritePackedInt32(int32(len(others)))
	for _, id := range others {
		w.WritePackedInt32(id)
	}
	w.EndMessage()
}

// writeAlterGameMessage carries the current visibility flag.
func (g *Game) writeAlterGameMessage(w *proto.MessageWriter, isPublic bool) {
	w.StartMessage(proto.AlterGameTag)
	w.WriteInt32(g.code)
	w.WriteUint8(proto.AlterGameChangePrivacy)
	w.WriteBool(isPublic)
	w.EndMessage()
}

// writeJoinGameMessage is the "player joined" notice broadcast to the
// other members.
func (g *Game) writeJoinGameMessage(w *proto.MessageWriter, p *Player) {
	w.StartMessage(proto.JoinGameTag)
	w.WriteInt32(g.code)
	w.WriteInt32(p.ID())
	w.WriteInt32(g.hostID)
	w.EndMessage()
}

// writeWaitForHostMessage parks a rejoining player until the host arrives.
func (g *Game) writeWaitForHostMessage(w *proto.MessageWriter, p *Player) {
	w.StartMessage(proto.WaitForHostTag)
	w.WriteInt32(g.code)
	w.WriteInt32(p.ID())
	w.EndMessage()
}

// writeRemovePlayerMessage is the membership-list delta.
func (g *Game) writeRemovePlayerMessage(w *proto.MessageWriter, playerID int32, reason proto.DisconnectReason) {
	w.StartMessage(proto.RemovePlayerTag)
	w.WriteInt32(g.code)
	w.WriteInt32(playerID)
	w.WriteInt32(g.hostID)
	w.WriteUint8(byte(reason))
	w.EndMessage()
}

// writeKickPlayerMessage is the social event, sent to everyone including
// the target.
func (g *Game) writeKickPlayerMessage(w *proto.MessageWriter, playerID int32, isBan bool) {
	w.StartMessage(proto.KickPlayerTag)
	w.WriteInt32(g.code)
	w.WritePackedInt32(playerID)
	w.WriteBool(isBan)
	w.EndMessage()
}
