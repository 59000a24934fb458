package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/skeldnet/skeld/internal/game"
)

// ErrServerFull is returned by Register when the connection cap is reached.
var ErrServerFull = errors.New("server is full")

const maxNameLength = 10

// Registry tracks every connected client across all games and hands out
// identities. It is shared process-wide and safe for concurrent use; no
// game lock is required (or held) around its calls.
type Registry struct {
	Logger *logrus.Logger

	// MaxConnections caps concurrently registered clients.
	MaxConnections int
	// MinVersion is the lowest client version Validate will accept.
	MinVersion int32
	// JoinRateLimit is the number of join attempts allowed per address
	// within JoinRateWindow. Zero disables throttling.
	JoinRateLimit int
	JoinRateWindow time.Duration

	mu      sync.RWMutex
	clients map[int32]*Client
	nextID  int32

	joinAttempts *cache.Cache
}

func (r *Registry) Init() {
	r.clients = make(map[int32]*Client)
	if r.JoinRateWindow == 0 {
		r.JoinRateWindow = time.Minute
	}
	r.joinAttempts = cache.New(r.JoinRateWindow, 2*r.JoinRateWindow)
}

// Register assigns an identity to a freshly connected client. The name and
// version come from the connection handshake.
func (r *Registry) Register(name string, version int32, conn Connection) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.MaxConnections > 0 && len(r.clients) >= r.MaxConnections {
		return nil, ErrServerFull
	}

	r.nextID++
	c := &Client{
		id:      r.nextID,
		name:    name,
		version: version,
		conn:    conn,
	}
	r.clients[c.id] = c

	r.Logger.Debugf("registered client %d (%s) from %v", c.id, c.name, c.Address())
	return c, nil
}

// Remove forgets a client. Its game membership must already be torn down.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	delete(r.clients, c.id)
	r.mu.Unlock()
}

// Find returns the client with the given identity, or nil.
func (r *Registry) Find(id int32) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[id]
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Validate reports whether a client is eligible to bind to a game: a sane
// display name, a supported version, and an address that is not hammering
// the join path.
func (r *Registry) Validate(c game.Client) bool {
	name := c.Name()
	if name == "" || len(name) > maxNameLength {
		r.Logger.Debugf("rejecting client %d: bad name %q", c.ID(), name)
		return false
	}

	cl, ok := c.(*Client)
	if !ok {
		return false
	}
	if cl.Version() < r.MinVersion {
		r.Logger.Debugf("rejecting client %d: version %d below minimum %d", c.ID(), cl.Version(), r.MinVersion)
		return false
	}

	if r.JoinRateLimit > 0 {
		if addr := c.Address(); addr != nil {
			if !r.allowJoinAttempt(addr.String()) {
				r.Logger.Warnf("rejecting client %d: join rate exceeded for %s", c.ID(), addr)
				return false
			}
		}
	}

	return true
}

// allowJoinAttempt bumps the per-address attempt counter and reports
// whether the address is still under the limit for the current window.
func (r *Registry) allowJoinAttempt(address string) bool {
	key := fmt.Sprintf("join:%s", address)

	if err := r.joinAttempts.Add(key, int64(1), cache.DefaultExpiration); err == nil {
		return true
	}
	count, err := r.joinAttempts.IncrementInt64(key, 1)
	if err != nil {
		// The entry expired between Add and Increment; start a new window.
		r.joinAttempts.Set(key, int64(1), cache.DefaultExpiration)
		return true
	}
	return count <= int64(r.JoinRateLimit)
}
