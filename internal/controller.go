package internal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/skeldnet/skeld/internal/api"
	"github.com/skeldnet/skeld/internal/client"
	"github.com/skeldnet/skeld/internal/core"
	"github.com/skeldnet/skeld/internal/core/data"
	"github.com/skeldnet/skeld/internal/core/debug"
	"github.com/skeldnet/skeld/internal/game"
	"github.com/skeldnet/skeld/internal/gameserver"
	"github.com/skeldnet/skeld/internal/notifier"
)

// Controller is the main entrypoint for the server. It's responsible for
// initializing any shared resources (such as database and logging),
// wiring the game server together, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup

	db       *gorm.DB
	notifier *notifier.Notifier
	manager  *game.Manager
	server   *frontend
}

func (c *Controller) Start(ctx context.Context) {
	defer c.Shutdown(ctx)

	var err error
	// Set up the logger, which will be used by all components.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		c.logger.Errorf("error initializing logger: %v", err)
		return
	}

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.PprofEnabled {
		debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	if c.db, err = data.Initialize(c.Config); err != nil {
		c.logger.Errorf("error initializing database: %v", err)
		return
	}

	if c.Config.Notifier.Command != "" {
		c.notifier, err = notifier.Start(c.logger, c.Config.Notifier.Command, c.Config.Notifier.Args)
		if err != nil {
			c.logger.Errorf("error starting notifier: %v", err)
			return
		}
	} else {
		c.notifier = notifier.Nop()
	}

	c.declareServer()
	c.run(ctx)
}

// Set up the game server and everything it depends on.
func (c *Controller) declareServer() {
	registry := &client.Registry{
		Logger:         c.logger,
		MaxConnections: c.Config.MaxConnections,
		MinVersion:     int32(c.Config.GameServer.MinClientVersion),
		JoinRateLimit:  c.Config.GameServer.JoinRateLimit,
		JoinRateWindow: time.Duration(c.Config.GameServer.JoinRateWindow) * time.Second,
	}
	registry.Init()

	c.manager = &game.Manager{
		Logger:     c.logger,
		Registry:   registry,
		Notifier:   c.notifier,
		MaxPlayers: c.Config.GameServer.MaxPlayers,
		UseV1Codes: c.Config.GameServer.UseV1Codes,
		OnBan:      c.recordBan,
	}
	c.manager.Init()

	c.server = &frontend{
		Address: c.Config.ListenAddress(),
		Config:  c.Config,
		Logger:  c.logger,
		Backend: &gameserver.Server{
			Name:     "GAME",
			Config:   c.Config,
			Logger:   c.logger,
			Registry: registry,
			Manager:  c.manager,
		},
	}
}

func (c *Controller) run(ctx context.Context) {
	// Failure to initialize the game server is considered terminal.
	if err := c.server.Start(ctx, &c.wg); err != nil {
		c.logger.Errorf("error starting %s server: %v", c.server.Backend.Identifier(), err)
		return
	}

	if c.Config.API.Port > 0 {
		apiServer := &api.Server{
			Logger:  c.logger,
			Manager: c.manager,
			DB:      c.db,
		}
		apiServer.Start(ctx, c.Config.API.Port)
	}

	c.wg.Wait()
}

// recordBan persists an address ban so that it survives restarts.
func (c *Controller) recordBan(address, code string, playerID int32) {
	record := &data.BanRecord{
		Address:  address,
		GameCode: code,
		PlayerID: playerID,
	}
	if err := data.CreateBanRecord(c.db, record); err != nil {
		c.logger.Warnf("failed to persist ban for %s in game %s: %v", address, code, err)
	}
}

func (c *Controller) Shutdown(ctx context.Context) {
	c.wg.Wait()

	if c.notifier != nil {
		c.notifier.Stop()
	}
	if c.db != nil {
		data.Shutdown(c.db)
	}
}
