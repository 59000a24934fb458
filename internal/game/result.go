package game

import "github.com/skeldnet/skeld/internal/proto"

// JoinError enumerates the ways a join attempt can be rejected. These are
// results, not Go errors: a rejected join is a normal protocol outcome and
// is reported back to the client over the wire.
type JoinError int

const (
	JoinErrorNone JoinError = iota
	JoinErrorBanned
	JoinErrorGameFull
	JoinErrorGameStarted
	JoinErrorGameDestroyed
	JoinErrorInvalidClient
	JoinErrorInvalidLimbo
)

func (e JoinError) String() string {
	switch e {
	case JoinErrorNone:
		return "none"
	case JoinErrorBanned:
		return "banned"
	case JoinErrorGameFull:
		return "game full"
	case JoinErrorGameStarted:
		return "game started"
	case JoinErrorGameDestroyed:
		return "game destroyed"
	case JoinErrorInvalidClient:
		return "invalid client"
	case JoinErrorInvalidLimbo:
		return "invalid limbo state"
	}
	return "unknown"
}

// DisconnectReason maps the rejection to the code sent back to the client.
func (e JoinError) DisconnectReason() proto.DisconnectReason {
	switch e {
	case JoinErrorBanned:
		return proto.DisconnectBanned
	case JoinErrorGameFull:
		return proto.DisconnectGameFull
	case JoinErrorGameStarted:
		return proto.DisconnectGameStarted
	case JoinErrorGameDestroyed:
		return proto.DisconnectDestroy
	case JoinErrorInvalidClient, JoinErrorInvalidLimbo:
		return proto.DisconnectCustom
	}
	return proto.DisconnectError
}

// JoinResult is the outcome of a single join attempt.
type JoinResult struct {
	Error  JoinError
	Player *Player
}

// Success reports whether the join attempt admitted (or re-admitted) the player.
func (r JoinResult) Success() bool { return r.Error == JoinErrorNone }

func joinSuccess(p *Player) JoinResult { return JoinResult{Player: p} }

func joinFailure(e JoinError) JoinResult { return JoinResult{Error: e} }
