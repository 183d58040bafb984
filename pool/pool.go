// The pool package manages a bounded set of authenticated bolt.Conn handles,
// please read @spec section 4.8 "Pool/Manager": acquire/create/recycle/
// destroy connections under bounded concurrency.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/oryx-bolt/go-bolt/bolt"
	"github.com/oryx-bolt/go-bolt/boltlog"
)

// Auth is the scheme/principal/credentials triple sent in HELLO's extra
// map, please read @spec section 4.4.
type Auth struct {
	Scheme      string
	Principal   string
	Credentials string
}

// Basic builds the "basic" auth scheme used by Neo4j's default auth
// provider.
func Basic(username, password string) Auth {
	return Auth{Scheme: "basic", Principal: username, Credentials: password}
}

// Config configures a Manager.
type Config struct {
	// Network is the dial network, "tcp" if empty.
	Network string
	Address string
	Auth    Auth
	// UserAgent identifies this client in HELLO; e.g. "go-bolt/1.0".
	UserAgent string
	// MaxSize bounds the number of connections the Manager will ever have
	// open at once (idle + in use). Defaults to 50.
	MaxSize int
	// ChunkCapacity overrides the default chunk size for every connection
	// the Manager creates.
	ChunkCapacity uint16
}

func (c Config) network() string {
	if c.Network == "" {
		return "tcp"
	}
	return c.Network
}

func (c Config) chunkConfig() bolt.ChunkConfig {
	if c.ChunkCapacity == 0 {
		return bolt.NewChunkConfig()
	}
	return bolt.ChunkConfig{ChunkCapacity: c.ChunkCapacity}
}

// Manager hands out bolt.Conn handles, dialing/handshaking/authenticating
// new ones as needed up to Config.MaxSize, and recycles released
// connections via RESET when they come back in StateReady.
type Manager struct {
	config  Config
	factory func() (*bolt.Conn, error)

	idle chan *bolt.Conn

	mu      sync.Mutex
	created int
}

// NewManager returns a ready Manager. It does not dial anything itself;
// connections are created lazily by Acquire.
func NewManager(config Config) *Manager {
	if config.MaxSize <= 0 {
		config.MaxSize = 50
	}
	m := &Manager{
		config: config,
		idle:   make(chan *bolt.Conn, config.MaxSize),
	}
	m.factory = m.dial
	return m
}

// Acquire returns an idle connection, or creates a fresh one if the pool
// has not yet reached MaxSize, or blocks until one of those becomes
// possible (or ctx is done).
func (m *Manager) Acquire(ctx context.Context) (*bolt.Conn, error) {
	select {
	case c := <-m.idle:
		return c, nil
	default:
	}

	m.mu.Lock()
	if m.created < m.config.MaxSize {
		m.created++
		m.mu.Unlock()

		c, err := m.factory()
		if err != nil {
			m.mu.Lock()
			m.created--
			m.mu.Unlock()
			return nil, err
		}
		return c, nil
	}
	m.mu.Unlock()

	select {
	case c := <-m.idle:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns c to the pool if it is in StateReady (issuing RESET
// first to clear any leftover server-side state), and destroys it
// otherwise, please read @spec section 9 "Pool recycling".
func (m *Manager) Release(c *bolt.Conn) {
	if c.State() == bolt.StateReady {
		if err := c.Reset(); err == nil {
			select {
			case m.idle <- c:
			default:
				// Should not happen: idle has capacity MaxSize and created
				// is bounded the same way. Destroy rather than leak.
				m.destroy(c)
			}
			return
		}
	}
	m.destroy(c)
}

func (m *Manager) destroy(c *bolt.Conn) {
	c.Goodbye()
	m.mu.Lock()
	m.created--
	m.mu.Unlock()
}

// Close drains and closes every idle connection. In-use connections are
// unaffected; callers should Release them first.
func (m *Manager) Close() {
	for {
		select {
		case c := <-m.idle:
			m.destroy(c)
		default:
			return
		}
	}
}

// Stats reports the current split of connections in use versus idle.
func (m *Manager) Stats() (inUse, idle int) {
	m.mu.Lock()
	created := m.created
	m.mu.Unlock()
	idle = len(m.idle)
	return created - idle, idle
}

func (m *Manager) dial() (*bolt.Conn, error) {
	c, err := bolt.Dial(m.config.network(), m.config.Address, m.config.chunkConfig())
	if err != nil {
		return nil, fmt.Errorf("pool: dial %v failed, %v", m.config.Address, err)
	}
	if err := c.Handshake(bolt.DefaultProposal); err != nil {
		c.Close()
		return nil, fmt.Errorf("pool: handshake failed, %v", err)
	}
	if err := c.Hello(m.config.UserAgent, m.config.Auth.Scheme, m.config.Auth.Principal, m.config.Auth.Credentials); err != nil {
		return nil, fmt.Errorf("pool: hello failed, %v", err)
	}
	boltlog.T(c, "pool: created connection")
	return c, nil
}
