// Package api exposes a small HTTP surface for operators: listing games,
// inspecting a lobby, kicking players, and reviewing bans.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/skeldnet/skeld/internal/core/data"
	"github.com/skeldnet/skeld/internal/game"
	"github.com/skeldnet/skeld/internal/proto"
)

type Server struct {
	Logger  *logrus.Logger
	Manager *game.Manager
	DB      *gorm.DB

	httpServer *http.Server
}

// Start serves the admin API on the given port until the context is
// cancelled. Errors from a dying listener are logged, not propagated; the
// admin surface must never take the game server down with it.
func (s *Server) Start(ctx context.Context, port int) {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router(),
	}

	go func() {
		s.Logger.Infof("[API] waiting for requests on :%d", port)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Errorf("[API] server exited: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/games", s.handleListGames)
	router.GET("/api/games/:code", s.handleGetGame)
	router.POST("/api/games/:code/kick", s.handleKickPlayer)
	router.GET("/api/bans", s.handleListBans)
	return router
}

type gameSummary struct {
	Code       string `json:"code"`
	State      string `json:"state"`
	Public     bool   `json:"public"`
	HostID     int32  `json:"host_id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
}

func summarize(g *game.Game) gameSummary {
	return gameSummary{
		Code:       g.CodeString(),
		State:      g.State().String(),
		Public:     g.IsPublic(),
		HostID:     g.HostID(),
		Players:    g.PlayerCount(),
		MaxPlayers: g.MaxPlayers(),
	}
}

func (s *Server) handleListGames(c *gin.Context) {
	games := s.Manager.Games()
	summaries := make([]gameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, summarize(g))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "games": summaries})
}

func (s *Server) findGame(c *gin.Context) *game.Game {
	code, err := proto.GameCodeToInt(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game code"})
		return nil
	}
	g := s.Manager.FindGame(code)
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return nil
	}
	return g
}

func (s *Server) handleGetGame(c *gin.Context) {
	g := s.findGame(c)
	if g == nil {
		return
	}

	type playerInfo struct {
		ID    int32  `json:"id"`
		Name  string `json:"name"`
		Limbo string `json:"limbo"`
	}
	players := make([]playerInfo, 0, g.PlayerCount())
	for _, id := range g.PlayerIDs() {
		p := g.Player(id)
		if p == nil {
			continue
		}
		players = append(players, playerInfo{
			ID:    p.ID(),
			Name:  p.Client().Name(),
			Limbo: p.Limbo().String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"game": summarize(g), "player_list": players})
}

func (s *Server) handleKickPlayer(c *gin.Context) {
	g := s.findGame(c)
	if g == nil {
		return
	}

	var req struct {
		PlayerID int32 `json:"player_id" binding:"required"`
		Ban      bool  `json:"ban"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if g.Player(req.PlayerID) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not in game"})
		return
	}

	if err := g.HandleKickPlayer(req.PlayerID, req.Ban); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.Logger.Infof("[API] kicked player %d from game %s (ban=%v)", req.PlayerID, g.CodeString(), req.Ban)
	c.JSON(http.StatusOK, gin.H{"kicked": req.PlayerID, "banned": req.Ban})
}

func (s *Server) handleListBans(c *gin.Context) {
	const banListLimit = 100

	bans, err := data.ListBanRecords(s.DB, banListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bans), "bans": bans})
}
