// Wire-level constants shared by the frontend and the game server.
package proto

// Send options occupying the first byte of every UDP packet. Reliable
// packets carry a nonce that the receiver is expected to acknowledge.
const (
	PacketUnreliable  = 0x00
	PacketReliable    = 0x01
	PacketHello       = 0x08
	PacketDisconnect  = 0x09
	PacketAcknowledge = 0x0a
	PacketPing        = 0x0c
)

// Tags for the root messages nested inside reliable/unreliable packets.
const (
	HostGameTag       byte = 0x00
	JoinGameTag       byte = 0x01
	StartGameTag      byte = 0x02
	RemoveGameTag     byte = 0x03
	RemovePlayerTag   byte = 0x04
	GameDataTag       byte = 0x05
	GameDataToTag     byte = 0x06
	JoinedGameTag     byte = 0x07
	EndGameTag        byte = 0x08
	GetGameListTag    byte = 0x09
	AlterGameTag      byte = 0x0a
	KickPlayerTag     byte = 0x0b
	WaitForHostTag    byte = 0x0c
	RedirectTag       byte = 0x0d
	ReselectServerTag byte = 0x0e
)

// Tags for the sub-messages nested inside a GameData message.
const (
	DataFlag        byte = 1
	RpcFlag         byte = 2
	SpawnFlag       byte = 4
	DespawnFlag     byte = 5
	SceneChangeFlag byte = 6
	ReadyFlag       byte = 7
)

// RPC call IDs the server needs to recognize. Every other call ID is
// routed untouched; these three either carry fields that have to be
// consumed to keep the cursor aligned or mark voice activity.
const (
	RpcSyncSettings byte = 2
	RpcStartTalking byte = 14
	RpcEndTalking   byte = 23
)

// Sub-command of the AlterGame message. Privacy is the only one the
// client ever sends.
const AlterGameChangePrivacy byte = 1

// DisconnectReason is sent to clients when they are refused entry to or
// removed from a game.
type DisconnectReason byte

const (
	DisconnectExitGame         DisconnectReason = 0
	DisconnectGameFull         DisconnectReason = 1
	DisconnectGameStarted      DisconnectReason = 2
	DisconnectGameNotFound     DisconnectReason = 3
	DisconnectIncorrectVersion DisconnectReason = 5
	DisconnectBanned           DisconnectReason = 6
	DisconnectKicked           DisconnectReason = 7
	DisconnectCustom           DisconnectReason = 8
	DisconnectDestroy          DisconnectReason = 16
	DisconnectError            DisconnectReason = 17
	DisconnectIncorrectGame    DisconnectReason = 18
	DisconnectServerRequest    DisconnectReason = 19
	DisconnectServerFull       DisconnectReason = 20
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectExitGame:
		return "exit game"
	case DisconnectGameFull:
		return "game full"
	case DisconnectGameStarted:
		return "game started"
	case DisconnectGameNotFound:
		return "game not found"
	case DisconnectIncorrectVersion:
		return "incorrect version"
	case DisconnectBanned:
		return "banned"
	case DisconnectKicked:
		return "kicked"
	case DisconnectCustom:
		return "custom"
	case DisconnectDestroy:
		return "game destroyed"
	case DisconnectError:
		return "error"
	case DisconnectIncorrectGame:
		return "incorrect game"
	case DisconnectServerRequest:
		return "server request"
	case DisconnectServerFull:
		return "server full"
	}
	return "unknown"
}
