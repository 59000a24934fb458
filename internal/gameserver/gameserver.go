package gameserver

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skeldnet/skeld/internal/client"
	"github.com/skeldnet/skeld/internal/core"
	"github.com/skeldnet/skeld/internal/game"
	"github.com/skeldnet/skeld/internal/proto"
)

// Server is the game traffic backend. It owns no game state itself: it
// decodes root messages, resolves the game they address, and calls into
// the game's handlers. All join rejections surface here as wire messages
// back to the client rather than as errors.
type Server struct {
	Name     string
	Config   *core.Config
	Logger   *logrus.Logger
	Registry *client.Registry
	Manager  *game.Manager
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(_ context.Context) error {
	return nil
}

// AcceptClient registers the identity negotiated during the hello exchange.
func (s *Server) AcceptClient(conn client.Connection, name string, version int32) (*client.Client, error) {
	return s.Registry.Register(name, version, conn)
}

// DropClient detaches the client from its game, if any, and releases its
// identity.
func (s *Server) DropClient(c *client.Client, reason proto.DisconnectReason) {
	if player := c.CurrentPlayer(); player != nil {
		if g := player.Game(); g != nil {
			if err := g.HandleRemovePlayer(c.ID(), reason); err != nil {
				s.Logger.Warnf("error removing player %d from %s: %v", c.ID(), g.CodeString(), err)
			}
		}
	}
	s.Registry.Remove(c)
	s.Logger.Infof("client %d (%s) disconnected: %s", c.ID(), c.Name(), reason)
}

// Handle processes every root message in one inbound payload.
func (s *Server) Handle(_ context.Context, c *client.Client, data []byte) error {
	root := proto.NewMessageReader(data)

	for root.Position() < root.Length() {
		msg, err := root.ReadMessage()
		if err != nil {
			s.Logger.Debugf("malformed payload from client %d: %v", c.ID(), err)
			return nil
		}

		switch msg.Tag {
		case proto.HostGameTag:
			err = s.handleHostGame(c, msg)
		case proto.JoinGameTag:
			err = s.handleJoinGame(c, msg)
		case proto.StartGameTag:
			err = s.handleStartGame(c, msg)
		case proto.EndGameTag:
			err = s.handleEndGame(c, msg)
		case proto.AlterGameTag:
			err = s.handleAlterGame(c, msg)
		case proto.KickPlayerTag:
			err = s.handleKickPlayer(c, msg)
		case proto.GameDataTag, proto.GameDataToTag:
			err = s.handleGameData(c, msg, msg.Tag == proto.GameDataToTag)
		case proto.GetGameListTag:
			err = s.handleGetGameList(c)
		default:
			s.Logger.Debugf("received unknown message %02x from client %d", msg.Tag, c.ID())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// handleHostGame creates a game sized by the host's requested settings and
// answers with the allocated code. The client joins it with a follow-up
// JoinGame message.
func (s *Server) handleHostGame(c *client.Client, msg *proto.MessageReader) error {
	opts, err := proto.ReadGameOptions(msg)
	if err != nil {
		s.Logger.Debugf("malformed host game options from client %d: %v", c.ID(), err)
		return nil
	}

	g := s.Manager.CreateGame(int(opts.MaxPlayers))

	w := proto.NewMessageWriter()
	w.StartMessage(proto.HostGameTag)
	w.WriteInt32(g.Code())
	w.EndMessage()
	return c.SendReliable(w.Bytes())
}

func (s *Server) handleJoinGame(c *client.Client, msg *proto.MessageReader) error {
	code, err := msg.ReadInt32()
	if err != nil {
		s.Logger.Debugf("malformed join game from client %d: %v", c.ID(), err)
		return nil
	}

	g := s.Manager.FindGame(code)
	if g == nil {
		return s.sendJoinFailure(c, proto.DisconnectGameNotFound, "")
	}

	result := g.AddClient(c)
	if !result.Success() {
		s.Logger.Infof("%s - rejected join from client %d: %s", g.CodeString(), c.ID(), result.Error)

		reason := result.Error.DisconnectReason()
		message := ""
		if reason == proto.DisconnectCustom {
			message = cases.Title(language.English).String(result.Error.String())
		}
		return s.sendJoinFailure(c, reason, message)
	}
	return nil
}

// sendJoinFailure answers a join attempt with its rejection reason so the
// client UI can distinguish "room full" from "banned" from "already
// started".
func (s *Server) sendJoinFailure(c *client.Client, reason proto.DisconnectReason, message string) error {
	w := proto.NewMessageWriter()
	w.StartMessage(proto.JoinGameTag)
	w.WriteInt32(int32(reason))
	if message != "" {
		w.WriteString(message)
	}
	w.EndMessage()
	return c.SendReliable(w.Bytes())
}

func (s *Server) handleStartGame(c *client.Client, msg *proto.MessageReader) error {
	g, player := s.resolveGame(c, msg, "start game")
	if g == nil {
		return nil
	}
	if !s.requireHost(g, player, "start game") {
		return nil
	}
	return g.HandleStartGame(msg)
}

func (s *Server) handleEndGame(c *client.Client, msg *proto.MessageReader) error {
	g, player := s.resolveGame(c, msg, "end game")
	if g == nil {
		return nil
	}
	if !s.requireHost(g, player, "end game") {
		return nil
	}
	return g.HandleEndGame(msg)
}

func (s *Server) handleAlterGame(c *client.Client, msg *proto.MessageReader) error {
	g, player := s.resolveGame(c, msg, "alter game")
	if g == nil {
		return nil
	}
	if !s.requireHost(g, player, "alter game") {
		return nil
	}

	subcommand, err := msg.ReadByte()
	if err != nil || subcommand != proto.AlterGameChangePrivacy {
		s.Logger.Debugf("unexpected alter game subcommand from client %d", c.ID())
		return nil
	}
	isPublic, err := msg.ReadBool()
	if err != nil {
		s.Logger.Debugf("malformed alter game from client %d: %v", c.ID(), err)
		return nil
	}
	return g.HandleAlterGame(msg, player, isPublic)
}

func (s *Server) handleKickPlayer(c *client.Client, msg *proto.MessageReader) error {
	g, player := s.resolveGame(c, msg, "kick player")
	if g == nil {
		return nil
	}
	if !s.requireHost(g, player, "kick player") {
		return nil
	}

	targetID, err := msg.ReadPackedInt32()
	if err != nil {
		s.Logger.Debugf("malformed kick player from client %d: %v", c.ID(), err)
		return nil
	}
	isBan, err := msg.ReadBool()
	if err != nil {
		s.Logger.Debugf("malformed kick player from client %d: %v", c.ID(), err)
		return nil
	}
	return g.HandleKickPlayer(targetID, isBan)
}

func (s *Server) handleGameData(c *client.Client, msg *proto.MessageReader, toPlayer bool) error {
	g, player := s.resolveGame(c, msg, "game data")
	if g == nil {
		return nil
	}
	return g.HandleGameData(msg, player, toPlayer)
}

// handleGetGameList answers with the public games that still have room.
func (s *Server) handleGetGameList(c *client.Client) error {
	ip := net.ParseIP(s.Config.Hostname).To4()
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1).To4()
	}

	w := proto.NewMessageWriter()
	w.StartMessage(proto.GetGameListTag)
	for _, g := range s.Manager.Games() {
		if !g.IsPublic() || g.State() != game.NotStarted {
			continue
		}

		hostName := ""
		if host := g.Player(g.HostID()); host != nil {
			hostName = host.Client().Name()
		}

		w.StartMessage(0)
		w.WriteBytes(ip)
		w.WriteUint16(uint16(s.Config.Port))
		w.WriteInt32(g.Code())
		w.WriteString(hostName)
		w.WriteUint8(uint8(g.PlayerCount()))
		w.WriteUint8(uint8(g.MaxPlayers()))
		w.EndMessage()
	}
	w.EndMessage()
	return c.SendReliable(w.Bytes())
}

// resolveGame reads the leading game code and checks the sender is
// actually a member of the game it addresses. Messages for games the
// sender does not belong to are dropped without a reply.
func (s *Server) resolveGame(c *client.Client, msg *proto.MessageReader, op string) (*game.Game, *game.Player) {
	code, err := msg.ReadInt32()
	if err != nil {
		s.Logger.Debugf("malformed %s message from client %d: %v", op, c.ID(), err)
		return nil, nil
	}

	g := s.Manager.FindGame(code)
	if g == nil {
		s.Logger.Debugf("%s from client %d for unknown game %d", op, c.ID(), code)
		return nil, nil
	}

	player := c.CurrentPlayer()
	if player == nil || player.Game() != g {
		s.Logger.Debugf("%s from client %d who is not in game %s", op, c.ID(), g.CodeString())
		return nil, nil
	}
	return g, player
}

// requireHost drops operations reserved for the game's designated owner.
func (s *Server) requireHost(g *game.Game, player *game.Player, op string) bool {
	if player.ID() != g.HostID() {
		s.Logger.Warnf("%s - ignored %s from non-host player %d", g.CodeString(), op, player.ID())
		return false
	}
	return true
}
